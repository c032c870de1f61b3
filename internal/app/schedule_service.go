// internal/app/schedule_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lesson_schedule_bot/internal/domain/lesson"
	"lesson_schedule_bot/internal/domain/schedule"
	"lesson_schedule_bot/internal/domain/teacher"
	idb "lesson_schedule_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

const (
	MaxLessonsPerCourse = 366
	MaxPreviewDates     = 60
	DefaultUpcoming     = 5
)

var ErrTeacherNotRegistered = fmt.Errorf("sender is not a registered teacher")
var ErrTeacherInactive = fmt.Errorf("teacher account is inactive")
var ErrCourseNotOwned = fmt.Errorf("course belongs to another teacher")
var ErrInvalidPlan = fmt.Errorf("invalid course plan")
var ErrNoMatchingDates = fmt.Errorf("no date in the sequence passes the weekday filter")

// CoursePlan is a request to create a course.
type CoursePlan struct {
	Title        string
	StartDate    time.Time
	Step         schedule.StepPolicy
	LessonsCount int
}

// PreviewRequest describes dates to compute without storing anything.
// LessonsCount of zero means the sequence is unbounded.
type PreviewRequest struct {
	StartDate    time.Time
	Step         schedule.StepPolicy
	LessonsCount int
	Take         int
	Exclude      []time.Weekday
}

// UpcomingLesson pairs a lesson with the title of its course.
type UpcomingLesson struct {
	Lesson      *lesson.Lesson
	CourseTitle string
}

type ScheduleService struct {
	teacherRepo teacher.Repository
	lessonRepo  lesson.Repository
	defaults    schedule.StepPolicy
	loc         *time.Location
	logger      *logrus.Entry
}

func NewScheduleService(
	tr teacher.Repository,
	lr lesson.Repository,
	defaults schedule.StepPolicy,
	loc *time.Location,
	logger *logrus.Entry,
) *ScheduleService {
	if loc == nil {
		loc = time.Local
	}
	if defaults.StepDays <= 0 {
		defaults.StepDays = 1
	}
	return &ScheduleService{
		teacherRepo: tr,
		lessonRepo:  lr,
		defaults:    defaults,
		loc:         loc,
		logger:      logger,
	}
}

// Defaults returns the step policy used when a request leaves it unspecified.
func (s *ScheduleService) Defaults() schedule.StepPolicy {
	return s.defaults
}

// Location is the time zone lesson dates are interpreted in.
func (s *ScheduleService) Location() *time.Location {
	return s.loc
}

// Today returns midnight of now's date in the service location.
func (s *ScheduleService) Today(now time.Time) time.Time {
	return schedule.DateOf(now.In(s.loc))
}

func (s *ScheduleService) activeTeacher(ctx context.Context, telegramID int64) (*teacher.Teacher, error) {
	t, err := s.teacherRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, idb.ErrTeacherNotFound) {
			return nil, ErrTeacherNotRegistered
		}
		return nil, fmt.Errorf("failed to get teacher by Telegram ID %d: %w", telegramID, err)
	}
	if !t.IsActive {
		return nil, ErrTeacherInactive
	}
	return t, nil
}

// PlanCourse creates a course for the teacher identified by telegramID and
// stores one lesson per generated date.
func (s *ScheduleService) PlanCourse(ctx context.Context, telegramID int64, plan CoursePlan) (*lesson.Course, []*lesson.Lesson, error) {
	title := strings.TrimSpace(plan.Title)
	if title == "" {
		return nil, nil, fmt.Errorf("%w: title is empty", ErrInvalidPlan)
	}
	if plan.LessonsCount > MaxLessonsPerCourse {
		return nil, nil, fmt.Errorf("%w: at most %d lessons per course, got %d", ErrInvalidPlan, MaxLessonsPerCourse, plan.LessonsCount)
	}

	t, err := s.activeTeacher(ctx, telegramID)
	if err != nil {
		return nil, nil, err
	}

	course := &lesson.Course{
		TeacherID:    t.ID,
		Title:        title,
		StartDate:    schedule.DateOf(plan.StartDate.In(s.loc)),
		StepDays:     plan.Step.StepDays,
		DayOff:       plan.Step.SkipWeekday,
		LessonsCount: plan.LessonsCount,
	}
	dates, err := course.Sequence().Dates()
	if err != nil {
		return nil, nil, err
	}

	lessons, err := s.lessonRepo.CreateCourse(ctx, course, dates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store course %q: %w", title, err)
	}
	s.logger.WithFields(logrus.Fields{
		"teacher_id":    t.ID,
		"course_id":     course.ID,
		"lessons_count": len(lessons),
		"step_days":     course.StepDays,
	}).Info("Course planned")
	return course, lessons, nil
}

// PreviewDates computes dates lazily: an unbounded generator filtered by the
// excluded weekdays and cut after Take dates.
func (s *ScheduleService) PreviewDates(req PreviewRequest) ([]time.Time, error) {
	if req.Take <= 0 || req.Take > MaxPreviewDates {
		return nil, fmt.Errorf("%w: preview size must be between 1 and %d, got %d", ErrInvalidPlan, MaxPreviewDates, req.Take)
	}
	bound := schedule.Unbounded()
	if req.LessonsCount != 0 {
		bound = schedule.Bounded(req.LessonsCount)
	}
	seed := schedule.DateOf(req.StartDate.In(s.loc))
	g, err := schedule.NewDateGenerator(seed, req.Step, bound)
	if err != nil {
		return nil, err
	}
	keep := schedule.ExcludeWeekdays(req.Exclude...)
	if _, bounded := bound.Limit(); !bounded && !schedule.Reaches(seed, req.Step, keep) {
		return nil, ErrNoMatchingDates
	}
	return schedule.Collect(schedule.Prefix(schedule.Filter[time.Time](g, keep), req.Take)), nil
}

// UpcomingLessons returns up to limit lessons of the teacher from today on.
func (s *ScheduleService) UpcomingLessons(ctx context.Context, telegramID int64, now time.Time, limit int) ([]UpcomingLesson, error) {
	if limit <= 0 {
		limit = DefaultUpcoming
	}
	t, err := s.activeTeacher(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessonRepo.ListUpcomingByTeacher(ctx, t.ID, s.Today(now), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming lessons for teacher %d: %w", t.ID, err)
	}
	titles := map[int64]string{}
	upcoming := make([]UpcomingLesson, 0, len(lessons))
	for _, l := range lessons {
		title, ok := titles[l.CourseID]
		if !ok {
			c, err := s.lessonRepo.GetCourseByID(ctx, l.CourseID)
			if err != nil {
				return nil, fmt.Errorf("failed to get course %d: %w", l.CourseID, err)
			}
			title = c.Title
			titles[l.CourseID] = title
		}
		upcoming = append(upcoming, UpcomingLesson{Lesson: l, CourseTitle: title})
	}
	return upcoming, nil
}

// ExtendCourse appends one lesson after the course's last lesson, continuing
// the course's own step and day off.
func (s *ScheduleService) ExtendCourse(ctx context.Context, courseID int64) (*lesson.Course, *lesson.Lesson, error) {
	course, err := s.lessonRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get course %d: %w", courseID, err)
	}
	from := course.StartDate
	last, err := s.lessonRepo.LastLesson(ctx, courseID)
	switch {
	case err == nil:
		from = last.Date
	case !errors.Is(err, idb.ErrLessonNotFound):
		return nil, nil, fmt.Errorf("failed to get last lesson of course %d: %w", courseID, err)
	}

	g, err := schedule.ResumeDateGenerator(schedule.Cursor{Current: from}, course.StepPolicy(), schedule.Bounded(1))
	if err != nil {
		return nil, nil, fmt.Errorf("course %d has an invalid schedule: %w", courseID, err)
	}
	date, _ := g.Next()

	added := &lesson.Lesson{CourseID: courseID, Date: date, Status: lesson.StatusScheduled}
	if err := s.lessonRepo.AppendLesson(ctx, added); err != nil {
		return nil, nil, fmt.Errorf("failed to append lesson to course %d: %w", courseID, err)
	}
	s.logger.WithFields(logrus.Fields{
		"course_id": courseID,
		"lesson_id": added.ID,
		"number":    added.Number,
		"date":      date.Format("2006-01-02"),
	}).Info("Course extended")
	return course, added, nil
}

// ExtendOwnCourse is ExtendCourse restricted to the course owner.
func (s *ScheduleService) ExtendOwnCourse(ctx context.Context, telegramID, courseID int64) (*lesson.Course, *lesson.Lesson, error) {
	t, err := s.activeTeacher(ctx, telegramID)
	if err != nil {
		return nil, nil, err
	}
	course, err := s.lessonRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get course %d: %w", courseID, err)
	}
	if course.TeacherID != t.ID {
		return nil, nil, ErrCourseNotOwned
	}
	return s.ExtendCourse(ctx, courseID)
}
