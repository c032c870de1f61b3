// internal/domain/notification/repository.go
package notification

import (
	"context"
	"time"
)

// DueFilter selects reminders whose question should be asked again.
type DueFilter struct {
	Status             InteractionStatus
	NotifiedAtOrBefore time.Time // Never delivered reminders always match
	MaxAttempts        int       // Only reminders asked fewer times than this
	LessonsFrom        time.Time // Only still scheduled lessons on or after this date
}

// Repository defines operations for lesson reminders.
type Repository interface {
	CreateReminder(ctx context.Context, r *Reminder) error
	GetReminderByID(ctx context.Context, id int64) (*Reminder, error)
	GetReminderByLesson(ctx context.Context, lessonID int64) (*Reminder, error)
	UpdateReminder(ctx context.Context, r *Reminder) error
	ListDueReminders(ctx context.Context, filter DueFilter) ([]*Reminder, error)
}
