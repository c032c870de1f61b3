package telegram

import (
	"context"
	"errors"
	"time"

	"lesson_schedule_bot/internal/app"
	"lesson_schedule_bot/internal/domain/schedule"
	idb "lesson_schedule_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// scheduleErrorText maps service errors to the reply shown to the teacher.
// ok is false for unexpected errors.
func scheduleErrorText(err error) (text string, ok bool) {
	switch {
	case errors.Is(err, app.ErrTeacherNotRegistered):
		return msgNotRegistered, true
	case errors.Is(err, app.ErrTeacherInactive):
		return msgInactive, true
	case errors.Is(err, app.ErrCourseNotOwned), errors.Is(err, idb.ErrCourseNotFound):
		return "Курс не найден.", true
	case errors.Is(err, app.ErrNoMatchingDates):
		return "Ни одна дата последовательности не проходит фильтр дней недели.", true
	case errors.Is(err, app.ErrInvalidPlan), errors.Is(err, schedule.ErrInvalidConfiguration), errors.Is(err, errUsage):
		return "Ошибка: " + err.Error(), true
	}
	return msgInternalError, false
}

func replyError(c telebot.Context, log *logrus.Entry, err error, usage string) error {
	text, ok := scheduleErrorText(err)
	if !ok {
		log.WithError(err).Error("Command failed")
		return c.Send(text)
	}
	log.WithError(err).Warn("Command rejected")
	if errors.Is(err, errUsage) && usage != "" {
		text += "\n" + usage
	}
	return c.Send(text)
}

// RegisterScheduleHandlers registers the course planning commands.
func RegisterScheduleHandlers(ctx context.Context, b *telebot.Bot, schedules *app.ScheduleService, baseLogger *logrus.Entry) {
	b.Handle("/plan", func(c telebot.Context) error {
		log := handlerLogger(baseLogger, "/plan", c)
		plan, err := parsePlanArgs(c.Args(), schedules.Location(), schedules.Defaults())
		if err != nil {
			return replyError(c, log, err, usagePlan)
		}
		course, lessons, err := schedules.PlanCourse(ctx, c.Sender().ID, plan)
		if err != nil {
			return replyError(c, log, err, usagePlan)
		}
		log.WithField("course_id", course.ID).Info("Course planned via bot")
		return c.Send(planSummary(course, lessons))
	})

	b.Handle("/preview", func(c telebot.Context) error {
		log := handlerLogger(baseLogger, "/preview", c)
		req, err := parsePreviewArgs(c.Args(), schedules.Location(), schedules.Defaults())
		if err != nil {
			return replyError(c, log, err, usagePreview)
		}
		dates, err := schedules.PreviewDates(req)
		if err != nil {
			return replyError(c, log, err, usagePreview)
		}
		return c.Send(previewSummary(dates, req.Step))
	})

	b.Handle("/lessons", func(c telebot.Context) error {
		log := handlerLogger(baseLogger, "/lessons", c)
		limit := app.DefaultUpcoming
		if args := c.Args(); len(args) > 0 {
			n, err := parsePositive("count", args[0])
			if err != nil {
				return replyError(c, log, err, usageLessons)
			}
			limit = n
		}
		upcoming, err := schedules.UpcomingLessons(ctx, c.Sender().ID, time.Now(), limit)
		if err != nil {
			return replyError(c, log, err, usageLessons)
		}
		return c.Send(upcomingSummary(upcoming))
	})

	b.Handle("/extend", func(c telebot.Context) error {
		log := handlerLogger(baseLogger, "/extend", c)
		args := c.Args()
		if len(args) != 1 {
			return replyError(c, log, errUsage, usageExtend)
		}
		courseID, err := parseID(args[0])
		if err != nil {
			return replyError(c, log, err, usageExtend)
		}
		course, added, err := schedules.ExtendOwnCourse(ctx, c.Sender().ID, courseID)
		if err != nil {
			return replyError(c, log, err, usageExtend)
		}
		return c.Send(extendSummary(course, added))
	})
}
