// internal/app/notification_service.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"lesson_schedule_bot/internal/domain/lesson"
	"lesson_schedule_bot/internal/domain/notification"
	"lesson_schedule_bot/internal/domain/teacher"
	domainTelegram "lesson_schedule_bot/internal/domain/telegram"
	idb "lesson_schedule_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3" // For telebot.ReplyMarkup and telebot.SendOptions
)

// Callback uniques of the inline buttons attached to lesson questions. The
// callback payload is the reminder ID.
const (
	CallbackConfirmLesson = "lesson_yes"
	CallbackCancelLesson  = "lesson_no"
)

// NotificationService drives the lesson reminder workflow.
type NotificationService interface {
	// ProcessNextDayReminders asks teachers about every lesson scheduled for the day after now.
	ProcessNextDayReminders(ctx context.Context, now time.Time) error
	// ProcessPendingReminders re-asks questions left unanswered for longer than the repeat interval.
	ProcessPendingReminders(ctx context.Context, now time.Time) error
	ProcessLessonConfirmed(ctx context.Context, reminderID int64) error
	ProcessLessonCancelled(ctx context.Context, reminderID int64) error
}

// ReminderPolicy controls how often an unanswered question is repeated.
type ReminderPolicy struct {
	RepeatAfter time.Duration
	MaxAttempts int
}

// NotificationServiceImpl implements the NotificationService interface.
type NotificationServiceImpl struct {
	teacherRepo    teacher.Repository
	lessonRepo     lesson.Repository
	reminderRepo   notification.Repository
	schedules      *ScheduleService
	telegramClient domainTelegram.Client
	policy         ReminderPolicy
	logger         *logrus.Entry
}

func NewNotificationServiceImpl(
	tr teacher.Repository,
	lr lesson.Repository,
	rr notification.Repository,
	schedules *ScheduleService,
	tc domainTelegram.Client,
	policy ReminderPolicy,
	logger *logrus.Entry,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		teacherRepo:    tr,
		lessonRepo:     lr,
		reminderRepo:   rr,
		schedules:      schedules,
		telegramClient: tc,
		policy:         policy,
		logger:         logger,
	}
}

// lessonContext is everything needed to phrase a question about a lesson.
type lessonContext struct {
	lesson  *lesson.Lesson
	course  *lesson.Course
	teacher *teacher.Teacher
}

func (s *NotificationServiceImpl) loadLessonContext(ctx context.Context, lessonID int64) (*lessonContext, error) {
	l, err := s.lessonRepo.GetLessonByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson %d: %w", lessonID, err)
	}
	c, err := s.lessonRepo.GetCourseByID(ctx, l.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", l.CourseID, err)
	}
	t, err := s.teacherRepo.GetByID(ctx, c.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher %d: %w", c.TeacherID, err)
	}
	return &lessonContext{lesson: l, course: c, teacher: t}, nil
}

// ProcessNextDayReminders creates a reminder for every scheduled lesson of
// tomorrow and sends the first question. Lessons that already have a
// reminder are skipped, so the job can safely run more than once a day.
func (s *NotificationServiceImpl) ProcessNextDayReminders(ctx context.Context, now time.Time) error {
	tomorrow := s.schedules.Today(now).AddDate(0, 0, 1)
	log := s.logger.WithField("lesson_date", tomorrow.Format("2006-01-02"))
	log.Info("Processing next-day lesson reminders")

	lessons, err := s.lessonRepo.ListScheduledOn(ctx, tomorrow)
	if err != nil {
		log.WithError(err).Error("Failed to list lessons scheduled for tomorrow")
		return fmt.Errorf("failed to list lessons scheduled on %s: %w", tomorrow.Format("2006-01-02"), err)
	}
	if len(lessons) == 0 {
		log.Info("No lessons scheduled for tomorrow")
		return nil
	}

	sent := 0
	for _, l := range lessons {
		lessonLog := log.WithField("lesson_id", l.ID)
		_, err := s.reminderRepo.GetReminderByLesson(ctx, l.ID)
		if err == nil {
			lessonLog.Debug("Reminder already exists, skipping")
			continue
		}
		if !errors.Is(err, idb.ErrReminderNotFound) {
			lessonLog.WithError(err).Error("Failed to check existing reminder")
			continue // Log and continue with other lessons
		}

		lc, err := s.loadLessonContext(ctx, l.ID)
		if err != nil {
			lessonLog.WithError(err).Error("Failed to load lesson details")
			continue
		}

		reminder := &notification.Reminder{
			LessonID:  l.ID,
			TeacherID: lc.teacher.ID,
			Status:    notification.StatusPendingQuestion,
		}
		if err := s.reminderRepo.CreateReminder(ctx, reminder); err != nil {
			if errors.Is(err, idb.ErrDuplicateReminder) {
				lessonLog.Debug("Reminder created concurrently, skipping")
				continue
			}
			lessonLog.WithError(err).Error("Failed to create reminder")
			continue
		}

		if err := s.askAboutLesson(ctx, reminder, lc, now); err != nil {
			lessonLog.WithError(err).Error("Failed to send lesson question")
			continue
		}
		sent++
	}
	log.WithField("sent", sent).Info("Next-day lesson reminders processed")
	return nil
}

// ProcessPendingReminders repeats unanswered questions for lessons that have
// not yet passed, up to the configured number of attempts.
func (s *NotificationServiceImpl) ProcessPendingReminders(ctx context.Context, now time.Time) error {
	s.logger.Info("Processing pending lesson reminders")
	due, err := s.reminderRepo.ListDueReminders(ctx, notification.DueFilter{
		Status:             notification.StatusPendingQuestion,
		NotifiedAtOrBefore: now.Add(-s.policy.RepeatAfter),
		MaxAttempts:        s.policy.MaxAttempts,
		LessonsFrom:        s.schedules.Today(now),
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to list due reminders")
		return fmt.Errorf("failed to list due reminders: %w", err)
	}

	for _, r := range due {
		log := s.logger.WithFields(logrus.Fields{"reminder_id": r.ID, "lesson_id": r.LessonID})
		lc, err := s.loadLessonContext(ctx, r.LessonID)
		if err != nil {
			log.WithError(err).Error("Failed to load lesson details")
			continue
		}
		if err := s.askAboutLesson(ctx, r, lc, now); err != nil {
			log.WithError(err).Error("Failed to repeat lesson question")
		}
	}
	return nil
}

func questionMarkup(reminderID int64) *telebot.ReplyMarkup {
	id := strconv.FormatInt(reminderID, 10)
	replyMarkup := &telebot.ReplyMarkup{}
	btnYes := replyMarkup.Data("Да", CallbackConfirmLesson, id)
	btnNo := replyMarkup.Data("Нет, отменить", CallbackCancelLesson, id)
	replyMarkup.Inline(replyMarkup.Row(btnYes, btnNo))
	return replyMarkup
}

// askAboutLesson sends the question and records the attempt.
func (s *NotificationServiceImpl) askAboutLesson(ctx context.Context, r *notification.Reminder, lc *lessonContext, now time.Time) error {
	when := "Завтра"
	if !lc.lesson.Date.After(s.schedules.Today(now)) {
		when = "Сегодня"
	}
	messageText := fmt.Sprintf("Привет, %s! %s, %s, урок №%d курса «%s». Урок состоится?",
		lc.teacher.FirstName, when, FormatLessonDate(lc.lesson.Date), lc.lesson.Number, lc.course.Title)

	err := s.telegramClient.SendMessage(lc.teacher.TelegramID, messageText, &telebot.SendOptions{ReplyMarkup: questionMarkup(r.ID)})
	if err != nil {
		return fmt.Errorf("failed to send question for lesson %d to teacher %d: %w", lc.lesson.ID, lc.teacher.ID, err)
	}

	r.LastNotifiedAt = sql.NullTime{Time: now, Valid: true}
	r.ResponseAttempts++
	if err := s.reminderRepo.UpdateReminder(ctx, r); err != nil {
		return fmt.Errorf("failed to record question for reminder %d: %w", r.ID, err)
	}
	s.logger.WithFields(logrus.Fields{
		"reminder_id": r.ID,
		"teacher_id":  lc.teacher.ID,
		"attempt":     r.ResponseAttempts,
	}).Info("Lesson question sent")
	return nil
}

// pending returns the reminder while it still awaits an answer. It returns
// nil, nil when the reminder is unknown or already answered, so repeated
// button presses are no-ops.
func (s *NotificationServiceImpl) pending(ctx context.Context, reminderID int64) (*notification.Reminder, error) {
	log := s.logger.WithField("reminder_id", reminderID)
	r, err := s.reminderRepo.GetReminderByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, idb.ErrReminderNotFound) {
			log.Warn("Reminder not found. Possibly a stale callback.")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reminder %d: %w", reminderID, err)
	}
	if r.Answered() {
		log.WithField("status", r.Status).Info("Reminder already answered. No action needed.")
		return nil, nil
	}
	return r, nil
}

// markAnswered records the answer. It runs after the lesson has been updated,
// so a failed update leaves the reminder pending and the button can be pressed again.
func (s *NotificationServiceImpl) markAnswered(ctx context.Context, r *notification.Reminder, status notification.InteractionStatus) error {
	r.Status = status
	if err := s.reminderRepo.UpdateReminder(ctx, r); err != nil {
		return fmt.Errorf("failed to update reminder %d: %w", r.ID, err)
	}
	return nil
}

// ProcessLessonConfirmed marks the lesson as confirmed.
func (s *NotificationServiceImpl) ProcessLessonConfirmed(ctx context.Context, reminderID int64) error {
	r, err := s.pending(ctx, reminderID)
	if err != nil || r == nil {
		return err
	}
	if err := s.lessonRepo.UpdateLessonStatus(ctx, r.LessonID, lesson.StatusConfirmed); err != nil {
		return fmt.Errorf("failed to confirm lesson %d: %w", r.LessonID, err)
	}
	if err := s.markAnswered(ctx, r, notification.StatusAnsweredYes); err != nil {
		return err
	}
	s.logger.WithField("lesson_id", r.LessonID).Info("Lesson confirmed")
	return nil
}

// ProcessLessonCancelled cancels the lesson and appends a replacement at the
// end of the course, then tells the teacher the new date.
func (s *NotificationServiceImpl) ProcessLessonCancelled(ctx context.Context, reminderID int64) error {
	r, err := s.pending(ctx, reminderID)
	if err != nil || r == nil {
		return err
	}
	lc, err := s.loadLessonContext(ctx, r.LessonID)
	if err != nil {
		return err
	}
	if err := s.lessonRepo.UpdateLessonStatus(ctx, r.LessonID, lesson.StatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel lesson %d: %w", r.LessonID, err)
	}
	course, added, err := s.schedules.ExtendCourse(ctx, lc.course.ID)
	if err != nil {
		return fmt.Errorf("failed to add replacement for lesson %d: %w", r.LessonID, err)
	}
	if err := s.markAnswered(ctx, r, notification.StatusAnsweredNo); err != nil {
		return err
	}

	text := fmt.Sprintf("Понял(а), урок №%d отменён. Вместо него добавлен урок №%d курса «%s» на %s.",
		lc.lesson.Number, added.Number, course.Title, FormatLessonDate(added.Date))
	if err := s.telegramClient.SendMessage(lc.teacher.TelegramID, text, nil); err != nil {
		s.logger.WithError(err).WithField("teacher_id", lc.teacher.ID).Error("Failed to send replacement lesson notice")
	}
	return nil
}
