// internal/infra/telegram/teacher_response_handlers.go
package telegram

import (
	"context"
	"fmt"

	"lesson_schedule_bot/internal/app" // For NotificationService interface

	"gopkg.in/telebot.v3"
)

type lessonAnswer struct {
	unique  string
	process func(ctx context.Context, reminderID int64) error
	ack     string
}

// RegisterTeacherResponseHandlers handles the Yes/No buttons attached to
// lesson questions. The callback payload is the reminder ID.
func RegisterTeacherResponseHandlers(ctx context.Context, b *telebot.Bot, notificationService app.NotificationService) {
	answers := []lessonAnswer{
		{unique: app.CallbackConfirmLesson, process: notificationService.ProcessLessonConfirmed, ack: "Отлично, урок подтверждён!"},
		{unique: app.CallbackCancelLesson, process: notificationService.ProcessLessonCancelled, ack: "Урок отменён."},
	}
	for _, a := range answers {
		b.Handle(&telebot.Btn{Unique: a.unique}, func(c telebot.Context) error {
			reminderID, err := parseID(c.Callback().Data)
			if err != nil {
				c.Bot().OnError(fmt.Errorf("invalid reminder ID in %s callback %q: %w", a.unique, c.Callback().Data, err), c)
				return c.Respond(&telebot.CallbackResponse{Text: "Ошибка обработки ответа."})
			}
			if err := a.process(ctx, reminderID); err != nil {
				c.Bot().OnError(fmt.Errorf("error processing %s for reminder %d: %w", a.unique, reminderID, err), c)
				return c.Respond(&telebot.CallbackResponse{Text: "Произошла ошибка."})
			}
			// Remove the buttons so the question cannot be answered twice.
			if _, err := c.Bot().EditReplyMarkup(c.Message(), nil); err != nil {
				c.Bot().OnError(fmt.Errorf("failed to remove buttons for reminder %d: %w", reminderID, err), c)
			}
			return c.Respond(&telebot.CallbackResponse{Text: a.ack})
		})
	}
}
