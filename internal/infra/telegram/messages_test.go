package telegram

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"lesson_schedule_bot/internal/app"
	"lesson_schedule_bot/internal/domain/lesson"
	"lesson_schedule_bot/internal/domain/schedule"
	"lesson_schedule_bot/internal/domain/teacher"
	idb "lesson_schedule_bot/internal/infra/database"

	"github.com/stretchr/testify/assert"
)

func TestDescribeStep(t *testing.T) {
	assert.Equal(t, "каждые 1 дн.", describeStep(schedule.DailyStep()))
	assert.Equal(t, "каждые 3 дн., выходной: вс", describeStep(schedule.StepPolicy{StepDays: 3}.SkipOn(time.Sunday)))
}

func TestPlanSummary(t *testing.T) {
	course := &lesson.Course{ID: 7, Title: "Гитара", StepDays: 1, DayOff: sql.Null[time.Weekday]{V: time.Sunday, Valid: true}}
	lessons := []*lesson.Lesson{
		{Number: 1, Date: time.Date(2016, 2, 27, 0, 0, 0, 0, time.UTC)},
		{Number: 2, Date: time.Date(2016, 2, 29, 0, 0, 0, 0, time.UTC)},
	}
	text := planSummary(course, lessons)
	assert.Contains(t, text, "Курс «Гитара» (ID: 7) создан: 2 уроков, каждые 1 дн., выходной: вс.")
	assert.Contains(t, text, "1. 27.02.2016 (сб)\n2. 29.02.2016 (пн)\n")
}

func TestUpcomingSummary(t *testing.T) {
	assert.Equal(t, "Ближайших уроков нет.", upcomingSummary(nil))

	text := upcomingSummary([]app.UpcomingLesson{{
		Lesson:      &lesson.Lesson{Number: 3, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Status: lesson.StatusConfirmed},
		CourseTitle: "Piano",
	}})
	assert.Contains(t, text, "05.03.2024 (вт): «Piano», урок №3 (подтверждён)")
}

func TestTeacherList(t *testing.T) {
	text := teacherList("Все преподаватели", []*teacher.Teacher{
		{ID: 1, TelegramID: 100, FirstName: "Анна", LastName: sql.NullString{String: "Петрова", Valid: true}, IsActive: true},
		{ID: 2, TelegramID: 200, FirstName: "Борис"},
	})
	assert.Contains(t, text, "--- Все преподаватели ---\n")
	assert.Contains(t, text, "ID: 1, Telegram ID: 100, Имя: Анна Петрова, Статус: Активен\n")
	assert.Contains(t, text, "ID: 2, Telegram ID: 200, Имя: Борис, Статус: Деактивирован\n")
}

func TestScheduleErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
		ok   bool
	}{
		{err: app.ErrTeacherNotRegistered, want: msgNotRegistered, ok: true},
		{err: app.ErrTeacherInactive, want: msgInactive, ok: true},
		{err: app.ErrCourseNotOwned, want: "Курс не найден.", ok: true},
		{err: fmt.Errorf("failed to get course 9: %w", idb.ErrCourseNotFound), want: "Курс не найден.", ok: true},
		{err: errors.New("connection refused"), want: msgInternalError, ok: false},
	}
	for _, tt := range tests {
		text, ok := scheduleErrorText(tt.err)
		assert.Equal(t, tt.want, text, "err=%v", tt.err)
		assert.Equal(t, tt.ok, ok, "err=%v", tt.err)
	}

	text, ok := scheduleErrorText(fmt.Errorf("%w: step must be positive, got 0", schedule.ErrInvalidConfiguration))
	assert.True(t, ok)
	assert.Contains(t, text, "step must be positive")
}
