package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"lesson_schedule_bot/internal/app"
	"lesson_schedule_bot/internal/domain/schedule"
	"lesson_schedule_bot/internal/infra/config"
	idb "lesson_schedule_bot/internal/infra/database"
	"lesson_schedule_bot/internal/infra/logger"
	"lesson_schedule_bot/internal/infra/scheduler"
	"lesson_schedule_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Could not load application configuration")
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Environment: cfg.Environment})
	mainLogger := logger.Component("main")

	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"admin_id":    cfg.AdminTelegramID,
		"timezone":    cfg.Location.String(),
	}).Info("Lesson Schedule Bot starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.EnsureSchema(ctx, db); err != nil {
		mainLogger.WithError(err).Fatal("Could not prepare database schema")
	}
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	teacherRepo := idb.NewPostgresTeacherRepository(db)
	lessonRepo := idb.NewPostgresLessonRepository(db, cfg.Location)
	reminderRepo := idb.NewPostgresReminderRepository(db)

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		URL:    cfg.TelegramAPIURL, // Empty means the public Bot API
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}

	// Initialize Services
	defaults := schedule.StepPolicy{StepDays: cfg.DefaultStepDays, SkipWeekday: cfg.DefaultDayOff}
	adminService := app.NewAdminService(teacherRepo, cfg.AdminTelegramID)
	scheduleService := app.NewScheduleService(teacherRepo, lessonRepo, defaults, cfg.Location, logger.Component("schedule_service"))
	notificationService := app.NewNotificationServiceImpl(
		teacherRepo,
		lessonRepo,
		reminderRepo,
		scheduleService,
		telegram.NewTelebotAdapter(bot),
		app.ReminderPolicy{RepeatAfter: cfg.ReminderRepeatAfter, MaxAttempts: cfg.ReminderMaxAttempts},
		logger.Component("notification_service"),
	)

	// Register Handlers
	handlersLogger := logger.Component("telegram_handlers")
	telegram.RegisterBotCommands(ctx, bot, adminService, teacherRepo, handlersLogger)
	telegram.RegisterAdminHandlers(ctx, bot, adminService, handlersLogger)
	telegram.RegisterScheduleHandlers(ctx, bot, scheduleService, handlersLogger)
	telegram.RegisterTeacherResponseHandlers(ctx, bot, notificationService)
	mainLogger.Info("Telegram handlers registered.")

	lessonScheduler := scheduler.NewLessonScheduler(
		notificationService,
		scheduler.Specs{NextDayCheck: cfg.CronSpecNextDayCheck, ReminderCheck: cfg.CronSpecReminderCheck},
		cfg.Location,
		logger.Component("scheduler"),
	)
	if err := lessonScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start lesson scheduler")
	}

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()
	mainLogger.Info("Application setup complete. Bot and scheduler are running.")

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	lessonScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
