package lesson

import "time"

// Status is the lifecycle state of a single lesson.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusConfirmed Status = "CONFIRMED" // Teacher confirmed the lesson will take place
	StatusCancelled Status = "CANCELLED" // Teacher cancelled; a replacement lesson is appended
)

// Lesson is one dated occurrence within a course.
type Lesson struct {
	ID        int64
	CourseID  int64 // Foreign Key to courses.id
	Number    int   // 1-based position within the course, replacements included
	Date      time.Time
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}
