package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sims-platform/sims-api/internal/models"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
	Create(ctx context.Context, record *models.Attendance) error
}

// RecordAttendanceRequest marks one student's presence for a date.
type RecordAttendanceRequest struct {
	StudentID int64                   `json:"student_id" validate:"required"`
	CourseID  int64                   `json:"course_id" validate:"required"`
	Date      *time.Time              `json:"date"`
	Status    models.AttendanceStatus `json:"status" validate:"required,oneof=Present Absent Late Excused"`
	Note      *string                 `json:"note"`
}

// AttendanceService records daily attendance.
type AttendanceService struct {
	repo        attendanceRepository
	enrollments gradeEnrollmentRepository
	assignments gradeAssignmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService creates an instance of AttendanceService.
func NewAttendanceService(repo attendanceRepository, enrollments gradeEnrollmentRepository, assignments gradeAssignmentRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, enrollments: enrollments, assignments: assignments, validator: validate, logger: logger}
}

// List returns paginated attendance details, scoped by the caller's role.
func (s *AttendanceService) List(ctx context.Context, principal models.Principal, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	switch principal.Role {
	case models.RoleStudent:
		if !principal.HasProfile() {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no student profile for account")
		}
		filter.StudentID = principal.ProfileID
	case models.RoleTeacher:
		if !principal.HasProfile() {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile for account")
		}
		filter.TeacherID = principal.ProfileID
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Record marks attendance. The recording teacher must be assigned to
// the course and the student actively enrolled; one record per student,
// course and date.
func (s *AttendanceService) Record(ctx context.Context, principal models.Principal, req RecordAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	if principal.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers record attendance")
	}
	if !principal.HasProfile() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile for account")
	}

	assigned, err := s.assignments.ExistsActive(ctx, req.CourseID, principal.ProfileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher is not assigned to course")
	}

	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, req.StudentID, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student is not enrolled in course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not active")
	}

	record := &models.Attendance{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		TeacherID: principal.ProfileID,
		Status:    req.Status,
		Note:      req.Note,
		IsActive:  true,
	}
	if req.Date != nil {
		record.AttendanceDate = *req.Date
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, asDomainError(err, "failed to record attendance")
	}

	s.logger.Info("attendance recorded",
		zap.Int64("student_id", req.StudentID),
		zap.Int64("course_id", req.CourseID),
		zap.String("status", string(req.Status)))
	return record, nil
}
