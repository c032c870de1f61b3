package database

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"lesson_schedule_bot/internal/domain/lesson"
	"lesson_schedule_bot/internal/domain/notification"
	"lesson_schedule_bot/internal/domain/teacher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL and applies the schema. Tests are
// skipped when the variable is not set.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	db, err := NewPostgresConnection(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, EnsureSchema(context.Background(), db))
	return db
}

// uniqueTelegramID keeps parallel and repeated runs from colliding.
func uniqueTelegramID() int64 {
	return time.Now().UnixNano()
}

func createTeacher(t *testing.T, repo *PostgresTeacherRepository, active bool) *teacher.Teacher {
	t.Helper()
	tch := &teacher.Teacher{TelegramID: uniqueTelegramID(), FirstName: "Анна", IsActive: active}
	require.NoError(t, repo.Create(context.Background(), tch))
	return tch
}

func TestPostgresTeacherRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresTeacherRepository(db)
	ctx := context.Background()

	tch := createTeacher(t, repo, true)
	assert.NotZero(t, tch.ID)

	dup := &teacher.Teacher{TelegramID: tch.TelegramID, FirstName: "Копия", IsActive: true}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateTelegramID)

	got, err := repo.GetByTelegramID(ctx, tch.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, tch.ID, got.ID)

	got.IsActive = false
	got.LastName = sql.NullString{String: "Петрова", Valid: true}
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, tch.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "Анна Петрова", got.FullName())

	active, err := repo.List(ctx, teacher.OnlyActive)
	require.NoError(t, err)
	assert.NotContains(t, teacherIDs(active), tch.ID)
	all, err := repo.List(ctx, teacher.Everyone)
	require.NoError(t, err)
	assert.Contains(t, teacherIDs(all), tch.ID)

	_, err = repo.GetByTelegramID(ctx, -1)
	assert.ErrorIs(t, err, ErrTeacherNotFound)
}

func TestPostgresLessonRepository(t *testing.T) {
	db := openTestDB(t)
	loc := time.FixedZone("MSK", 3*60*60)
	teachers := NewPostgresTeacherRepository(db)
	repo := NewPostgresLessonRepository(db, loc)
	ctx := context.Background()

	tch := createTeacher(t, teachers, true)
	date := func(d int) time.Time { return time.Date(2016, 2, d, 0, 0, 0, 0, loc) }

	course := &lesson.Course{
		TeacherID:    tch.ID,
		Title:        "Гитара",
		StartDate:    date(22),
		StepDays:     1,
		DayOff:       sql.Null[time.Weekday]{V: time.Sunday, Valid: true},
		LessonsCount: 3,
	}
	lessons, err := repo.CreateCourse(ctx, course, []time.Time{date(23), date(24), date(25)})
	require.NoError(t, err)
	require.Len(t, lessons, 3)
	for i, l := range lessons {
		assert.Equal(t, i+1, l.Number)
		assert.Equal(t, date(23+i), l.Date)
		assert.Equal(t, lesson.StatusScheduled, l.Status)
	}

	stored, err := repo.GetCourseByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, date(22), stored.StartDate)
	assert.Equal(t, course.DayOff, stored.DayOff)

	scheduled, err := repo.ListScheduledOn(ctx, date(24))
	require.NoError(t, err)
	assert.Contains(t, lessonIDs(scheduled), lessons[1].ID)

	require.NoError(t, repo.UpdateLessonStatus(ctx, lessons[1].ID, lesson.StatusCancelled))
	scheduled, err = repo.ListScheduledOn(ctx, date(24))
	require.NoError(t, err)
	assert.NotContains(t, lessonIDs(scheduled), lessons[1].ID)
	assert.ErrorIs(t, repo.UpdateLessonStatus(ctx, -1, lesson.StatusConfirmed), ErrLessonNotFound)

	added := &lesson.Lesson{CourseID: course.ID, Date: date(26)}
	require.NoError(t, repo.AppendLesson(ctx, added))
	assert.Equal(t, 4, added.Number)

	last, err := repo.LastLesson(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, added.ID, last.ID)
	assert.Equal(t, date(26), last.Date)

	upcoming, err := repo.ListUpcomingByTeacher(ctx, tch.ID, date(24), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{lessons[2].ID, added.ID}, lessonIDs(upcoming))
}

func TestPostgresReminderRepository(t *testing.T) {
	db := openTestDB(t)
	teachers := NewPostgresTeacherRepository(db)
	lessons := NewPostgresLessonRepository(db, time.UTC)
	repo := NewPostgresReminderRepository(db)
	ctx := context.Background()

	tch := createTeacher(t, teachers, true)
	course := &lesson.Course{TeacherID: tch.ID, Title: "Piano", StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), StepDays: 1, LessonsCount: 1}
	created, err := lessons.CreateCourse(ctx, course, []time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	rm := &notification.Reminder{LessonID: created[0].ID, TeacherID: tch.ID, Status: notification.StatusPendingQuestion}
	require.NoError(t, repo.CreateReminder(ctx, rm))
	assert.ErrorIs(t, repo.CreateReminder(ctx, &notification.Reminder{LessonID: created[0].ID, TeacherID: tch.ID, Status: notification.StatusPendingQuestion}), ErrDuplicateReminder)

	cutoff := time.Now()
	filter := notification.DueFilter{
		Status:             notification.StatusPendingQuestion,
		NotifiedAtOrBefore: cutoff,
		MaxAttempts:        2,
		LessonsFrom:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	due, err := repo.ListDueReminders(ctx, filter)
	require.NoError(t, err)
	assert.Contains(t, reminderIDs(due), rm.ID, "never delivered reminders are due")

	past := filter
	past.LessonsFrom = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	due, err = repo.ListDueReminders(ctx, past)
	require.NoError(t, err)
	assert.NotContains(t, reminderIDs(due), rm.ID, "lesson already passed")

	rm.LastNotifiedAt = sql.NullTime{Time: cutoff.Add(time.Minute), Valid: true}
	rm.ResponseAttempts = 1
	require.NoError(t, repo.UpdateReminder(ctx, rm))
	due, err = repo.ListDueReminders(ctx, filter)
	require.NoError(t, err)
	assert.NotContains(t, reminderIDs(due), rm.ID, "asked after the cutoff")

	rm.LastNotifiedAt = sql.NullTime{Time: cutoff.Add(-time.Hour), Valid: true}
	rm.ResponseAttempts = 2
	require.NoError(t, repo.UpdateReminder(ctx, rm))
	due, err = repo.ListDueReminders(ctx, filter)
	require.NoError(t, err)
	assert.NotContains(t, reminderIDs(due), rm.ID, "attempts exhausted")

	rm.ResponseAttempts = 1
	require.NoError(t, repo.UpdateReminder(ctx, rm))
	due, err = repo.ListDueReminders(ctx, filter)
	require.NoError(t, err)
	assert.Contains(t, reminderIDs(due), rm.ID, "asked once before the cutoff")

	require.NoError(t, lessons.UpdateLessonStatus(ctx, created[0].ID, lesson.StatusConfirmed))
	due, err = repo.ListDueReminders(ctx, filter)
	require.NoError(t, err)
	assert.NotContains(t, reminderIDs(due), rm.ID, "lesson already resolved")

	got, err := repo.GetReminderByLesson(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ResponseAttempts)

	_, err = repo.GetReminderByID(ctx, -1)
	assert.ErrorIs(t, err, ErrReminderNotFound)
}

func lessonIDs(lessons []*lesson.Lesson) []int64 {
	ids := make([]int64, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	return ids
}

func reminderIDs(reminders []*notification.Reminder) []int64 {
	ids := make([]int64, 0, len(reminders))
	for _, r := range reminders {
		ids = append(ids, r.ID)
	}
	return ids
}

func teacherIDs(teachers []*teacher.Teacher) []int64 {
	ids := make([]int64, 0, len(teachers))
	for _, t := range teachers {
		ids = append(ids, t.ID)
	}
	return ids
}
