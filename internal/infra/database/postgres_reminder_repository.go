// internal/infra/database/postgres_reminder_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lesson_schedule_bot/internal/domain/lesson"
	"lesson_schedule_bot/internal/domain/notification"
)

var ErrReminderNotFound = fmt.Errorf("lesson reminder not found")
var ErrDuplicateReminder = fmt.Errorf("duplicate lesson reminder (lesson_id)")

const reminderColumns = `id, lesson_id, teacher_id, status, last_notified_at, response_attempts, created_at, updated_at`

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

func scanReminder(row rowScanner) (*notification.Reminder, error) {
	rm := &notification.Reminder{}
	err := row.Scan(
		&rm.ID, &rm.LessonID, &rm.TeacherID, &rm.Status,
		&rm.LastNotifiedAt, &rm.ResponseAttempts, &rm.CreatedAt, &rm.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rm, nil
}

func (r *PostgresReminderRepository) CreateReminder(ctx context.Context, rm *notification.Reminder) error {
	query := `INSERT INTO lesson_reminders (lesson_id, teacher_id, status, last_notified_at, response_attempts)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, rm.LessonID, rm.TeacherID, rm.Status, rm.LastNotifiedAt, rm.ResponseAttempts).Scan(&rm.ID, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "lesson_reminders_lesson_key") {
			return ErrDuplicateReminder
		}
		return fmt.Errorf("error creating lesson reminder: %w", err)
	}
	return nil
}

func (r *PostgresReminderRepository) GetReminderByID(ctx context.Context, id int64) (*notification.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM lesson_reminders WHERE id = $1`
	rm, err := scanReminder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("error getting lesson reminder by ID: %w", err)
	}
	return rm, nil
}

func (r *PostgresReminderRepository) GetReminderByLesson(ctx context.Context, lessonID int64) (*notification.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM lesson_reminders WHERE lesson_id = $1`
	rm, err := scanReminder(r.db.QueryRowContext(ctx, query, lessonID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("error getting lesson reminder by lesson: %w", err)
	}
	return rm, nil
}

func (r *PostgresReminderRepository) UpdateReminder(ctx context.Context, rm *notification.Reminder) error {
	query := `UPDATE lesson_reminders
               SET status = $1, last_notified_at = $2, response_attempts = $3, updated_at = NOW()
               WHERE id = $4
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, rm.Status, rm.LastNotifiedAt, rm.ResponseAttempts, rm.ID).Scan(&rm.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReminderNotFound
		}
		return fmt.Errorf("error updating lesson reminder: %w", err)
	}
	return nil
}

func (r *PostgresReminderRepository) ListDueReminders(ctx context.Context, filter notification.DueFilter) ([]*notification.Reminder, error) {
	query := `SELECT r.id, r.lesson_id, r.teacher_id, r.status, r.last_notified_at, r.response_attempts, r.created_at, r.updated_at
               FROM lesson_reminders r
               JOIN lessons l ON l.id = r.lesson_id
               WHERE r.status = $1
                 AND (r.last_notified_at IS NULL OR r.last_notified_at <= $2)
                 AND r.response_attempts < $3
                 AND l.lesson_date >= $4::date AND l.status = $5
               ORDER BY r.last_notified_at ASC NULLS FIRST` // Never delivered first, then oldest
	rows, err := r.db.QueryContext(ctx, query,
		filter.Status, filter.NotifiedAtOrBefore, filter.MaxAttempts,
		filter.LessonsFrom.Format(dateLayout), lesson.StatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("error querying due reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]*notification.Reminder, 0)
	for rows.Next() {
		rm, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reminder row: %w", err)
		}
		reminders = append(reminders, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}
	return reminders, nil
}
