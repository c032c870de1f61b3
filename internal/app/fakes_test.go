package app

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"lesson_schedule_bot/internal/domain/lesson"
	"lesson_schedule_bot/internal/domain/notification"
	"lesson_schedule_bot/internal/domain/teacher"
	idb "lesson_schedule_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type memTeacherRepo struct {
	mu       sync.Mutex
	teachers map[int64]*teacher.Teacher
	nextID   int64
	failList error
}

func newMemTeacherRepo() *memTeacherRepo {
	return &memTeacherRepo{teachers: map[int64]*teacher.Teacher{}}
}

func (r *memTeacherRepo) add(telegramID int64, name string, active bool) *teacher.Teacher {
	t := &teacher.Teacher{TelegramID: telegramID, FirstName: name, IsActive: active}
	_ = r.Create(context.Background(), t)
	return t
}

func (r *memTeacherRepo) Create(_ context.Context, t *teacher.Teacher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.teachers {
		if existing.TelegramID == t.TelegramID {
			return idb.ErrDuplicateTelegramID
		}
	}
	r.nextID++
	t.ID = r.nextID
	cp := *t
	r.teachers[t.ID] = &cp
	return nil
}

func (r *memTeacherRepo) GetByID(_ context.Context, id int64) (*teacher.Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teachers[id]
	if !ok {
		return nil, idb.ErrTeacherNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTeacherRepo) GetByTelegramID(_ context.Context, telegramID int64) (*teacher.Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teachers {
		if t.TelegramID == telegramID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, idb.ErrTeacherNotFound
}

func (r *memTeacherRepo) Update(_ context.Context, t *teacher.Teacher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teachers[t.ID]; !ok {
		return idb.ErrTeacherNotFound
	}
	cp := *t
	r.teachers[t.ID] = &cp
	return nil
}

func (r *memTeacherRepo) List(_ context.Context, filter teacher.ListFilter) ([]*teacher.Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList != nil {
		return nil, r.failList
	}
	out := make([]*teacher.Teacher, 0)
	for _, t := range r.teachers {
		if filter == teacher.OnlyActive && !t.IsActive {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memLessonRepo struct {
	mu       sync.Mutex
	teachers *memTeacherRepo
	courses  map[int64]*lesson.Course
	lessons  map[int64]*lesson.Lesson
	nextID   int64

	// Returned once by the next AppendLesson or UpdateLessonStatus call.
	failAppend error
	failStatus error
}

func newMemLessonRepo(teachers *memTeacherRepo) *memLessonRepo {
	return &memLessonRepo{teachers: teachers, courses: map[int64]*lesson.Course{}, lessons: map[int64]*lesson.Lesson{}}
}

func (r *memLessonRepo) CreateCourse(_ context.Context, c *lesson.Course, dates []time.Time) ([]*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	cc := *c
	r.courses[c.ID] = &cc
	out := make([]*lesson.Lesson, 0, len(dates))
	for i, d := range dates {
		r.nextID++
		l := &lesson.Lesson{ID: r.nextID, CourseID: c.ID, Number: i + 1, Date: d, Status: lesson.StatusScheduled}
		lc := *l
		r.lessons[l.ID] = &lc
		out = append(out, l)
	}
	return out, nil
}

func (r *memLessonRepo) GetCourseByID(_ context.Context, id int64) (*lesson.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, idb.ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memLessonRepo) ListCoursesByTeacher(_ context.Context, teacherID int64) ([]*lesson.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*lesson.Course, 0)
	for _, c := range r.courses {
		if c.TeacherID == teacherID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memLessonRepo) GetLessonByID(_ context.Context, id int64) (*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lessons[id]
	if !ok {
		return nil, idb.ErrLessonNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memLessonRepo) filter(keep func(*lesson.Lesson) bool) []*lesson.Lesson {
	out := make([]*lesson.Lesson, 0)
	for _, l := range r.lessons {
		if keep(l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *memLessonRepo) ListLessonsByCourse(_ context.Context, courseID int64) ([]*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.filter(func(l *lesson.Lesson) bool { return l.CourseID == courseID })
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *memLessonRepo) ListUpcomingByTeacher(_ context.Context, teacherID int64, from time.Time, limit int) ([]*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.filter(func(l *lesson.Lesson) bool {
		return r.courses[l.CourseID].TeacherID == teacherID && !l.Date.Before(from) && l.Status != lesson.StatusCancelled
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memLessonRepo) ListScheduledOn(ctx context.Context, date time.Time) ([]*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(l *lesson.Lesson) bool {
		if !l.Date.Equal(date) || l.Status != lesson.StatusScheduled {
			return false
		}
		t, err := r.teachers.GetByID(ctx, r.courses[l.CourseID].TeacherID)
		return err == nil && t.IsActive
	}), nil
}

func (r *memLessonRepo) UpdateLessonStatus(_ context.Context, id int64, status lesson.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failStatus; err != nil {
		r.failStatus = nil
		return err
	}
	l, ok := r.lessons[id]
	if !ok {
		return idb.ErrLessonNotFound
	}
	l.Status = status
	return nil
}

func (r *memLessonRepo) LastLesson(_ context.Context, courseID int64) (*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *lesson.Lesson
	for _, l := range r.lessons {
		if l.CourseID == courseID && (last == nil || l.Number > last.Number) {
			last = l
		}
	}
	if last == nil {
		return nil, idb.ErrLessonNotFound
	}
	cp := *last
	return &cp, nil
}

func (r *memLessonRepo) AppendLesson(_ context.Context, l *lesson.Lesson) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failAppend; err != nil {
		r.failAppend = nil
		return err
	}
	if _, ok := r.courses[l.CourseID]; !ok {
		return errors.New("foreign key violation")
	}
	max := 0
	for _, existing := range r.lessons {
		if existing.CourseID == l.CourseID && existing.Number > max {
			max = existing.Number
		}
	}
	r.nextID++
	l.ID = r.nextID
	l.Number = max + 1
	cp := *l
	r.lessons[l.ID] = &cp
	return nil
}

type memReminderRepo struct {
	mu        sync.Mutex
	lessons   *memLessonRepo
	reminders map[int64]*notification.Reminder
	nextID    int64
}

func newMemReminderRepo(lessons *memLessonRepo) *memReminderRepo {
	return &memReminderRepo{lessons: lessons, reminders: map[int64]*notification.Reminder{}}
}

func (r *memReminderRepo) CreateReminder(_ context.Context, rm *notification.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reminders {
		if existing.LessonID == rm.LessonID {
			return idb.ErrDuplicateReminder
		}
	}
	r.nextID++
	rm.ID = r.nextID
	cp := *rm
	r.reminders[rm.ID] = &cp
	return nil
}

func (r *memReminderRepo) GetReminderByID(_ context.Context, id int64) (*notification.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.reminders[id]
	if !ok {
		return nil, idb.ErrReminderNotFound
	}
	cp := *rm
	return &cp, nil
}

func (r *memReminderRepo) GetReminderByLesson(_ context.Context, lessonID int64) (*notification.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rm := range r.reminders {
		if rm.LessonID == lessonID {
			cp := *rm
			return &cp, nil
		}
	}
	return nil, idb.ErrReminderNotFound
}

func (r *memReminderRepo) UpdateReminder(_ context.Context, rm *notification.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reminders[rm.ID]; !ok {
		return idb.ErrReminderNotFound
	}
	cp := *rm
	r.reminders[rm.ID] = &cp
	return nil
}

func (r *memReminderRepo) ListDueReminders(ctx context.Context, filter notification.DueFilter) ([]*notification.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*notification.Reminder, 0)
	for _, rm := range r.reminders {
		if rm.Status != filter.Status || rm.ResponseAttempts >= filter.MaxAttempts {
			continue
		}
		if rm.LastNotifiedAt.Valid && rm.LastNotifiedAt.Time.After(filter.NotifiedAtOrBefore) {
			continue
		}
		l, err := r.lessons.GetLessonByID(ctx, rm.LessonID)
		if err != nil {
			return nil, err
		}
		if l.Date.Before(filter.LessonsFrom) || l.Status != lesson.StatusScheduled {
			continue
		}
		cp := *rm
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type sentMessage struct {
	to      int64
	text    string
	options *telebot.SendOptions
}

type fakeTelegram struct {
	mu   sync.Mutex
	sent []sentMessage
	fail error
}

func (f *fakeTelegram) SendMessage(to int64, text string, options *telebot.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, sentMessage{to: to, text: text, options: options})
	return nil
}

func (f *fakeTelegram) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}
