package lesson

import (
	"context"
	"time"
)

// Repository defines operations for courses and their lessons.
type Repository interface {
	// CreateCourse stores the course and one SCHEDULED lesson per date, numbered from 1.
	CreateCourse(ctx context.Context, course *Course, dates []time.Time) ([]*Lesson, error)
	GetCourseByID(ctx context.Context, id int64) (*Course, error)
	ListCoursesByTeacher(ctx context.Context, teacherID int64) ([]*Course, error)

	GetLessonByID(ctx context.Context, id int64) (*Lesson, error)
	ListLessonsByCourse(ctx context.Context, courseID int64) ([]*Lesson, error)
	// ListUpcomingByTeacher returns non-cancelled lessons on or after from, earliest first.
	ListUpcomingByTeacher(ctx context.Context, teacherID int64, from time.Time, limit int) ([]*Lesson, error)
	// ListScheduledOn returns SCHEDULED lessons of active teachers on the given date.
	ListScheduledOn(ctx context.Context, date time.Time) ([]*Lesson, error)
	UpdateLessonStatus(ctx context.Context, id int64, status Status) error
	// LastLesson returns the lesson with the highest number in the course.
	LastLesson(ctx context.Context, courseID int64) (*Lesson, error)
	// AppendLesson stores l after the course's last lesson, setting ID and Number.
	AppendLesson(ctx context.Context, l *Lesson) error
}
