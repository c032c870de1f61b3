package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lesson_schedule_bot/internal/domain/teacher"
	idb "lesson_schedule_bot/internal/infra/database" // For ErrTeacherNotFound and friends
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrTeacherAlreadyExists = fmt.Errorf("teacher with this Telegram ID already exists")
var ErrTeacherAlreadyInactive = fmt.Errorf("teacher is already inactive")

type AdminService struct {
	teacherRepo     teacher.Repository
	adminTelegramID int64
}

func NewAdminService(tr teacher.Repository, adminID int64) *AdminService {
	return &AdminService{
		teacherRepo:     tr,
		adminTelegramID: adminID,
	}
}

// IsAdmin reports whether telegramID belongs to the configured admin.
func (s *AdminService) IsAdmin(telegramID int64) bool {
	return telegramID == s.adminTelegramID
}

// AddTeacher registers a new active teacher.
func (s *AdminService) AddTeacher(ctx context.Context, performingAdminID int64, newTeacherTelegramID int64, firstName string, lastNameValue string) (*teacher.Teacher, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}

	_, err := s.teacherRepo.GetByTelegramID(ctx, newTeacherTelegramID)
	if err == nil {
		return nil, ErrTeacherAlreadyExists
	}
	if !errors.Is(err, idb.ErrTeacherNotFound) {
		return nil, fmt.Errorf("failed to check existing teacher: %w", err)
	}

	var lastName sql.NullString
	if lastNameValue != "" {
		lastName.String = lastNameValue
		lastName.Valid = true
	}

	newTeacher := &teacher.Teacher{
		TelegramID: newTeacherTelegramID,
		FirstName:  firstName,
		LastName:   lastName,
		IsActive:   true, // New teachers are active by default
	}

	err = s.teacherRepo.Create(ctx, newTeacher)
	if err != nil {
		if errors.Is(err, idb.ErrDuplicateTelegramID) { // Lost a race with a concurrent add
			return nil, ErrTeacherAlreadyExists
		}
		return nil, fmt.Errorf("failed to create teacher in repository: %w", err)
	}

	return newTeacher, nil
}

// RemoveTeacher deactivates a teacher. Their courses are kept but no more
// reminders are sent.
func (s *AdminService) RemoveTeacher(ctx context.Context, performingAdminID int64, teacherTelegramIDToRemove int64) (*teacher.Teacher, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}

	targetTeacher, err := s.teacherRepo.GetByTelegramID(ctx, teacherTelegramIDToRemove)
	if err != nil {
		if errors.Is(err, idb.ErrTeacherNotFound) {
			return nil, idb.ErrTeacherNotFound // Propagate specific error
		}
		return nil, fmt.Errorf("failed to get teacher by Telegram ID for removal: %w", err)
	}

	if !targetTeacher.IsActive {
		return targetTeacher, ErrTeacherAlreadyInactive
	}

	targetTeacher.IsActive = false
	err = s.teacherRepo.Update(ctx, targetTeacher)
	if err != nil {
		return nil, fmt.Errorf("failed to update teacher to inactive in repository: %w", err)
	}

	return targetTeacher, nil
}

func (s *AdminService) ListActiveTeachers(ctx context.Context, performingAdminID int64) ([]*teacher.Teacher, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	teachers, err := s.teacherRepo.List(ctx, teacher.OnlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active teachers: %w", err)
	}
	return teachers, nil
}

func (s *AdminService) ListAllTeachers(ctx context.Context, performingAdminID int64) ([]*teacher.Teacher, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	teachers, err := s.teacherRepo.List(ctx, teacher.Everyone)
	if err != nil {
		return nil, fmt.Errorf("failed to list all teachers: %w", err)
	}
	return teachers, nil
}
