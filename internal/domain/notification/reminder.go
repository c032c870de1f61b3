// internal/domain/notification/reminder.go
package notification

import (
	"database/sql"
	"time"
)

// InteractionStatus represents the state of a teacher's answer to a lesson reminder.
type InteractionStatus string

const (
	StatusPendingQuestion InteractionStatus = "PENDING_QUESTION"
	StatusAnsweredYes     InteractionStatus = "ANSWERED_YES" // Lesson takes place
	StatusAnsweredNo      InteractionStatus = "ANSWERED_NO"  // Lesson cancelled
)

// Reminder tracks the question sent to a teacher the day before a lesson.
// There is at most one reminder per lesson.
type Reminder struct {
	ID               int64
	LessonID         int64 // Foreign Key to lessons.id
	TeacherID        int64 // Foreign Key to teachers.id
	Status           InteractionStatus
	LastNotifiedAt   sql.NullTime // When the last question for this lesson was sent
	ResponseAttempts int          // Number of times the question was sent
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Answered reports whether the teacher has already replied.
func (r *Reminder) Answered() bool {
	return r.Status == StatusAnsweredYes || r.Status == StatusAnsweredNo
}
