package scheduler

import (
	"context"
	"fmt"
	"time"

	"lesson_schedule_bot/internal/app" // For NotificationService interface

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	nextDayCheckTimeout  = 5 * time.Minute // Longer timeout, a whole day of lessons
	reminderCheckTimeout = 1 * time.Minute
)

// Specs holds the cron expressions of the scheduler jobs.
type Specs struct {
	NextDayCheck  string // e.g. "0 18 * * *" (6 PM daily)
	ReminderCheck string // e.g. "*/15 * * * *" (every 15 minutes)
}

type LessonScheduler struct {
	cronEngine   *cron.Cron
	notifService app.NotificationService // Using the interface
	specs        Specs
	logger       *logrus.Entry
	now          func() time.Time
}

// NewLessonScheduler creates a scheduler whose cron expressions are
// evaluated in loc, the same zone lesson dates are stored in.
func NewLessonScheduler(notifService app.NotificationService, specs Specs, loc *time.Location, logger *logrus.Entry) *LessonScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &LessonScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cron.PrintfLogger(logger)),
			cron.WithChain(cron.Recover(cron.PrintfLogger(logger)), cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		notifService: notifService,
		specs:        specs,
		logger:       logger,
		now:          time.Now,
	}
}

// Start registers the jobs and starts the cron engine. Nothing is started
// when a cron expression is invalid.
func (s *LessonScheduler) Start() error {
	s.logger.Info("Starting lesson scheduler...")

	if _, err := s.cronEngine.AddFunc(s.specs.NextDayCheck, s.runNextDayCheck); err != nil {
		return fmt.Errorf("could not add next-day check job %q: %w", s.specs.NextDayCheck, err)
	}
	if _, err := s.cronEngine.AddFunc(s.specs.ReminderCheck, s.runReminderCheck); err != nil {
		return fmt.Errorf("could not add reminder check job %q: %w", s.specs.ReminderCheck, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Lesson scheduler started")
	return nil
}

func (s *LessonScheduler) runNextDayCheck() {
	s.logger.Info("Cron job triggered for next-day lesson reminders.")
	ctx, cancel := context.WithTimeout(context.Background(), nextDayCheckTimeout)
	defer cancel()
	if err := s.notifService.ProcessNextDayReminders(ctx, s.now()); err != nil {
		s.logger.WithError(err).Error("Error during next-day reminder processing")
	}
}

func (s *LessonScheduler) runReminderCheck() {
	s.logger.Debug("Cron job triggered for pending lesson reminders.")
	ctx, cancel := context.WithTimeout(context.Background(), reminderCheckTimeout)
	defer cancel()
	if err := s.notifService.ProcessPendingReminders(ctx, s.now()); err != nil {
		s.logger.WithError(err).Error("Error during pending reminder processing")
	}
}

// Stop stops the cron engine and waits for running jobs to finish.
func (s *LessonScheduler) Stop() {
	s.logger.Info("Stopping lesson scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Lesson scheduler gracefully stopped.")
}
