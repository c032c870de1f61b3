package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"lesson_schedule_bot/internal/domain/schedule"

	"github.com/joho/godotenv"
)

const defaultEnvironment = "development"

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken         string
	TelegramAPIURL        string // Optional Bot API endpoint, e.g. a local server in staging
	DatabaseURL           string
	AdminTelegramID       int64
	LogLevel              string
	Environment           string
	Location              *time.Location
	CronSpecNextDayCheck  string // When to ask teachers about tomorrow's lessons
	CronSpecReminderCheck string // When to re-ask unanswered questions
	ReminderRepeatAfter   time.Duration
	ReminderMaxAttempts   int
	DefaultStepDays       int
	DefaultDayOff         sql.Null[time.Weekday]
}

// EnvFiles returns the dotenv files consulted for environment, most specific first.
func EnvFiles(environment string) []string {
	return []string{".env." + environment, ".env"}
}

// LoadEnvFiles loads the dotenv files for the environment named by ENVIRONMENT.
// Missing files are ignored and variables that are already set are never
// overridden, so the process environment always wins.
func LoadEnvFiles() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "" {
		env = defaultEnvironment
	}
	for _, f := range EnvFiles(env) {
		_ = godotenv.Load(f)
	}
}

// Load reads configuration from environment variables and .env files (if present).
func Load() (*AppConfig, error) {
	LoadEnvFiles()
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	cfg.TelegramAPIURL = os.Getenv("TELEGRAM_API_URL")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = defaultEnvironment
	}

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	}

	cfg.CronSpecNextDayCheck = os.Getenv("CRON_SPEC_NEXT_DAY_CHECK")
	if cfg.CronSpecNextDayCheck == "" {
		cfg.CronSpecNextDayCheck = "0 18 * * *" // Default: 6 PM daily
	}

	cfg.CronSpecReminderCheck = os.Getenv("CRON_SPEC_REMINDER_CHECK")
	if cfg.CronSpecReminderCheck == "" {
		cfg.CronSpecReminderCheck = "*/15 * * * *" // Default: every 15 minutes
	}

	cfg.ReminderRepeatAfter = time.Hour
	if v := os.Getenv("REMINDER_REPEAT_AFTER"); v != "" {
		cfg.ReminderRepeatAfter, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REMINDER_REPEAT_AFTER: %w", err)
		}
		if cfg.ReminderRepeatAfter <= 0 {
			return nil, fmt.Errorf("invalid REMINDER_REPEAT_AFTER: must be positive, got %s", v)
		}
	}

	cfg.ReminderMaxAttempts, err = positiveInt("REMINDER_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}

	cfg.DefaultStepDays, err = positiveInt("DEFAULT_STEP_DAYS", 1)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DEFAULT_DAY_OFF"); v != "" {
		day, err := schedule.ParseWeekday(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_DAY_OFF: %w", err)
		}
		cfg.DefaultDayOff = sql.Null[time.Weekday]{V: day, Valid: true}
	}

	return cfg, nil
}

func positiveInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, n)
	}
	return n, nil
}
