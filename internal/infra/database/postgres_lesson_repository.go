// internal/infra/database/postgres_lesson_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"lesson_schedule_bot/internal/domain/lesson"

	"github.com/lib/pq" // For pq.Array
)

var ErrCourseNotFound = fmt.Errorf("course not found")
var ErrLessonNotFound = fmt.Errorf("lesson not found")

const (
	courseColumns = `id, teacher_id, title, start_date, step_days, day_off, lessons_count, created_at`
	lessonColumns = `id, course_id, number, lesson_date, status, created_at, updated_at`
)

// PostgresLessonRepository stores courses and lessons. DATE columns are
// returned as midnight in loc.
type PostgresLessonRepository struct {
	db  *sql.DB
	loc *time.Location
}

func NewPostgresLessonRepository(db *sql.DB, loc *time.Location) *PostgresLessonRepository {
	if loc == nil {
		loc = time.Local
	}
	return &PostgresLessonRepository{db: db, loc: loc}
}

// --- Course Methods ---

func (r *PostgresLessonRepository) CreateCourse(ctx context.Context, c *lesson.Course, dates []time.Time) ([]*lesson.Lesson, error) {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for course creation: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	dayOff := sql.NullInt16{Int16: int16(c.DayOff.V), Valid: c.DayOff.Valid}
	err = txn.QueryRowContext(ctx,
		`INSERT INTO courses (teacher_id, title, start_date, step_days, day_off, lessons_count)
               VALUES ($1, $2, $3::date, $4, $5, $6)
               RETURNING id, created_at`,
		c.TeacherID, c.Title, c.StartDate.Format(dateLayout), c.StepDays, dayOff, c.LessonsCount,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating course: %w", err)
	}

	formatted := make([]string, len(dates))
	for i, d := range dates {
		formatted[i] = d.Format(dateLayout)
	}
	rows, err := txn.QueryContext(ctx,
		`INSERT INTO lessons (course_id, number, lesson_date, status)
               SELECT $1, t.n, t.d::date, $3
               FROM unnest($2::text[]) WITH ORDINALITY AS t(d, n)
               RETURNING `+lessonColumns,
		c.ID, pq.Array(formatted), lesson.StatusScheduled,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating lessons for course %d: %w", c.ID, err)
	}
	lessons, err := r.scanLessons(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].Number < lessons[j].Number })

	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit course %d: %w", c.ID, err)
	}
	return lessons, nil
}

func (r *PostgresLessonRepository) scanCourse(row rowScanner) (*lesson.Course, error) {
	c := &lesson.Course{}
	var dayOff sql.NullInt16
	if err := row.Scan(&c.ID, &c.TeacherID, &c.Title, &c.StartDate, &c.StepDays, &dayOff, &c.LessonsCount, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.StartDate = inLocation(c.StartDate, r.loc)
	c.DayOff = sql.Null[time.Weekday]{V: time.Weekday(dayOff.Int16), Valid: dayOff.Valid}
	return c, nil
}

func (r *PostgresLessonRepository) GetCourseByID(ctx context.Context, id int64) (*lesson.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	c, err := r.scanCourse(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("error getting course by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresLessonRepository) ListCoursesByTeacher(ctx context.Context, teacherID int64) ([]*lesson.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE teacher_id = $1 ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("error listing courses for teacher %d: %w", teacherID, err)
	}
	defer rows.Close()

	courses := make([]*lesson.Course, 0)
	for rows.Next() {
		c, err := r.scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, nil
}

// --- Lesson Methods ---

func (r *PostgresLessonRepository) scanLesson(row rowScanner) (*lesson.Lesson, error) {
	l := &lesson.Lesson{}
	if err := row.Scan(&l.ID, &l.CourseID, &l.Number, &l.Date, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.Date = inLocation(l.Date, r.loc)
	return l, nil
}

// Helper to scan multiple rows
func (r *PostgresLessonRepository) scanLessons(rows *sql.Rows) ([]*lesson.Lesson, error) {
	lessons := make([]*lesson.Lesson, 0)
	for rows.Next() {
		l, err := r.scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning lesson row: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lesson rows: %w", err)
	}
	return lessons, nil
}

func (r *PostgresLessonRepository) GetLessonByID(ctx context.Context, id int64) (*lesson.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	l, err := r.scanLesson(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("error getting lesson by ID: %w", err)
	}
	return l, nil
}

func (r *PostgresLessonRepository) ListLessonsByCourse(ctx context.Context, courseID int64) ([]*lesson.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE course_id = $1 ORDER BY number`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("error querying lessons by course: %w", err)
	}
	defer rows.Close()
	return r.scanLessons(rows)
}

func (r *PostgresLessonRepository) ListUpcomingByTeacher(ctx context.Context, teacherID int64, from time.Time, limit int) ([]*lesson.Lesson, error) {
	query := `SELECT l.id, l.course_id, l.number, l.lesson_date, l.status, l.created_at, l.updated_at
               FROM lessons l
               JOIN courses c ON c.id = l.course_id
               WHERE c.teacher_id = $1 AND l.lesson_date >= $2::date AND l.status != $3
               ORDER BY l.lesson_date, l.course_id, l.number
               LIMIT $4`
	rows, err := r.db.QueryContext(ctx, query, teacherID, from.Format(dateLayout), lesson.StatusCancelled, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying upcoming lessons: %w", err)
	}
	defer rows.Close()
	return r.scanLessons(rows)
}

func (r *PostgresLessonRepository) ListScheduledOn(ctx context.Context, date time.Time) ([]*lesson.Lesson, error) {
	query := `SELECT l.id, l.course_id, l.number, l.lesson_date, l.status, l.created_at, l.updated_at
               FROM lessons l
               JOIN courses c ON c.id = l.course_id
               JOIN teachers t ON t.id = c.teacher_id
               WHERE l.lesson_date = $1::date AND l.status = $2 AND t.is_active = TRUE
               ORDER BY c.teacher_id, l.id`
	rows, err := r.db.QueryContext(ctx, query, date.Format(dateLayout), lesson.StatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("error querying lessons scheduled on %s: %w", date.Format(dateLayout), err)
	}
	defer rows.Close()
	return r.scanLessons(rows)
}

func (r *PostgresLessonRepository) UpdateLessonStatus(ctx context.Context, id int64, status lesson.Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE lessons SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("error updating lesson %d status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows for lesson %d: %w", id, err)
	}
	if n == 0 {
		return ErrLessonNotFound
	}
	return nil
}

func (r *PostgresLessonRepository) LastLesson(ctx context.Context, courseID int64) (*lesson.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE course_id = $1 ORDER BY number DESC LIMIT 1`
	l, err := r.scanLesson(r.db.QueryRowContext(ctx, query, courseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("error getting last lesson of course %d: %w", courseID, err)
	}
	return l, nil
}

func (r *PostgresLessonRepository) AppendLesson(ctx context.Context, l *lesson.Lesson) error {
	query := `INSERT INTO lessons (course_id, number, lesson_date, status)
               SELECT $1, COALESCE(MAX(number), 0) + 1, $2::date, $3 FROM lessons WHERE course_id = $1
               RETURNING id, number, created_at, updated_at`
	if l.Status == "" {
		l.Status = lesson.StatusScheduled
	}
	err := r.db.QueryRowContext(ctx, query, l.CourseID, l.Date.Format(dateLayout), l.Status).Scan(&l.ID, &l.Number, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "lessons_course_number_key") {
			return fmt.Errorf("concurrent append to course %d: %w", l.CourseID, err)
		}
		return fmt.Errorf("error appending lesson to course %d: %w", l.CourseID, err)
	}
	return nil
}
