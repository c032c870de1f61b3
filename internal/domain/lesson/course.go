// internal/domain/lesson/course.go
package lesson

import (
	"database/sql"
	"time"

	"lesson_schedule_bot/internal/domain/schedule"
)

// Course is a planned series of lessons. Its lesson dates are produced by
// a date generator seeded with StartDate; the first lesson falls one step
// after StartDate.
type Course struct {
	ID           int64
	TeacherID    int64 // Foreign Key to teachers.id
	Title        string
	StartDate    time.Time
	StepDays     int
	DayOff       sql.Null[time.Weekday] // Lessons landing on it move to the next day
	LessonsCount int
	CreatedAt    time.Time
}

// StepPolicy returns the policy used to compute the course's lesson dates.
func (c *Course) StepPolicy() schedule.StepPolicy {
	return schedule.StepPolicy{StepDays: c.StepDays, SkipWeekday: c.DayOff}
}

// Sequence returns the sequence of the course's originally planned dates.
func (c *Course) Sequence() schedule.DateSequence {
	return schedule.DateSequence{
		Seed:  c.StartDate,
		Step:  c.StepPolicy(),
		Bound: schedule.Bounded(c.LessonsCount),
	}
}
