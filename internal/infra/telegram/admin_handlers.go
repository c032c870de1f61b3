package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lesson_schedule_bot/internal/app"
	"lesson_schedule_bot/internal/domain/teacher"
	idb "lesson_schedule_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func handlerLogger(base *logrus.Entry, handler string, c telebot.Context) *logrus.Entry {
	return base.WithFields(logrus.Fields{
		"handler":   handler,
		"sender_id": c.Sender().ID,
	})
}

// RegisterAdminHandlers registers handlers for admin commands. Every command
// is refused unless the sender is the configured admin.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, baseLogger *logrus.Entry) {
	b.Handle("/add_teacher", func(c telebot.Context) error {
		log := handlerLogger(baseLogger, "/add_teacher", c)
		log.Info("Command received")

		if !adminService.IsAdmin(c.Sender().ID) {
			log.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}

		args := c.Args()
		// Expected format: /add_teacher <TelegramID> <FirstName> [LastName]
		if len(args) < 2 || len(args) > 3 {
			log.WithField("args_count", len(args)).Warn("Invalid command format")
			return c.Send("Неверный формат команды. Используйте: /add_teacher <TelegramID> <Имя> [Фамилия]")
		}
		teacherTelegramID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Ошибка: Telegram ID должен быть числом.")
		}
		var lastName string
		if len(args) == 3 {
			lastName = args[2]
		}
		log = log.WithField("teacher_telegram_id", teacherTelegramID)

		newTeacher, err := adminService.AddTeacher(ctx, c.Sender().ID, teacherTelegramID, args[1], lastName)
		switch {
		case err == nil:
		case errors.Is(err, app.ErrTeacherAlreadyExists):
			log.WithError(err).Warn("Teacher already exists")
			return c.Send(fmt.Sprintf("Ошибка: Преподаватель с Telegram ID %d уже существует.", teacherTelegramID))
		case errors.Is(err, app.ErrAdminNotAuthorized):
			return c.Send(msgUnauthorized)
		default:
			log.WithError(err).Error("Failed to add teacher")
			return c.Send(msgInternalError)
		}

		log.WithField("new_teacher_id", newTeacher.ID).Info("Teacher added successfully")
		return c.Send(fmt.Sprintf("Преподаватель %s (ID: %d) успешно добавлен.", newTeacher.FullName(), newTeacher.TelegramID))
	})

	b.Handle("/remove_teacher", func(c telebot.Context) error {
		log := handlerLogger(baseLogger, "/remove_teacher", c)
		log.Info("Command received")

		if !adminService.IsAdmin(c.Sender().ID) {
			log.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}

		args := c.Args()
		if len(args) != 1 {
			return c.Send("Неверный формат команды. Используйте: /remove_teacher <TelegramID>")
		}
		teacherTelegramID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			log.WithField("arg", args[0]).Warn("Invalid Telegram ID format")
			return c.Send("Ошибка: Telegram ID должен быть числом.")
		}
		log = log.WithField("teacher_telegram_id", teacherTelegramID)

		removed, err := adminService.RemoveTeacher(ctx, c.Sender().ID, teacherTelegramID)
		switch {
		case err == nil:
		case errors.Is(err, idb.ErrTeacherNotFound):
			log.WithError(err).Warn("Teacher to remove not found")
			return c.Send(fmt.Sprintf("Преподаватель с Telegram ID %d не найден.", teacherTelegramID))
		case errors.Is(err, app.ErrTeacherAlreadyInactive):
			log.WithError(err).Warn("Teacher already inactive")
			return c.Send(fmt.Sprintf("Преподаватель %s (ID: %d) уже был деактивирован.", removed.FullName(), removed.TelegramID))
		case errors.Is(err, app.ErrAdminNotAuthorized):
			return c.Send(msgUnauthorized)
		default:
			log.WithError(err).Error("Failed to remove teacher")
			return c.Send(msgInternalError)
		}

		log.WithField("removed_teacher_id", removed.ID).Info("Teacher deactivated")
		return c.Send(fmt.Sprintf("Преподаватель %s (ID: %d) успешно деактивирован. Напоминания ему больше не отправляются.", removed.FullName(), removed.TelegramID))
	})

	b.Handle("/list_teachers", func(c telebot.Context) error {
		log := handlerLogger(baseLogger, "/list_teachers", c)
		if !adminService.IsAdmin(c.Sender().ID) {
			log.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}

		listType := "active"
		if args := c.Args(); len(args) > 0 {
			listType = strings.ToLower(args[0])
		}
		log = log.WithField("list_type", listType)

		var (
			teachers []*teacher.Teacher
			title    string
			err      error
		)
		switch listType {
		case "active":
			title = "Активные преподаватели"
			teachers, err = adminService.ListActiveTeachers(ctx, c.Sender().ID)
		case "all":
			title = "Все преподаватели"
			teachers, err = adminService.ListAllTeachers(ctx, c.Sender().ID)
		default:
			log.Warn("Invalid list type argument")
			return c.Send("Неверный аргумент. Используйте 'active' или 'all', или оставьте пустым для отображения активных преподавателей.")
		}
		if err != nil {
			log.WithError(err).Error("Failed to get list of teachers")
			return c.Send(msgInternalError)
		}

		if len(teachers) == 0 {
			if listType == "active" {
				return c.Send("Активных преподавателей не найдено.")
			}
			return c.Send("Список преподавателей пуст.")
		}
		log.WithField("teachers_count", len(teachers)).Info("Teacher list retrieved")
		return c.Send(teacherList(title, teachers))
	})
}
