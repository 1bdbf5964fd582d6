package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sims-platform/sims-api/internal/models"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.EnrollmentDetail, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) error
	UpdateNotes(ctx context.Context, id int64, notes *string) error
	Deactivate(ctx context.Context, id int64) error
}

type enrollmentStudentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
	FindClassMembers(ctx context.Context, classCode string) ([]models.Student, error)
}

type enrollmentCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type enrollmentClassRepository interface {
	FindByID(ctx context.Context, id int64) (*models.ClassRoomDetail, error)
}

// EnrollRequest registers one student in one course.
type EnrollRequest struct {
	StudentID int64   `json:"student_id" validate:"required"`
	CourseID  int64   `json:"course_id" validate:"required"`
	Notes     *string `json:"notes"`
}

// EnrollClassRequest registers every member of a class in a course.
type EnrollClassRequest struct {
	ClassRoomID int64 `json:"class_room_id" validate:"required"`
	CourseID    int64 `json:"course_id" validate:"required"`
}

// EnrollClassResult reports the outcome of a class-wide enrollment.
type EnrollClassResult struct {
	ClassMembers int `json:"class_members"`
	Enrolled     int `json:"enrolled"`
	Skipped      int `json:"skipped"`
}

// UpdateEnrollmentStatusRequest moves an enrollment to a new status.
type UpdateEnrollmentStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required"`
}

// UpdateEnrollmentNotesRequest rewrites enrollment notes.
type UpdateEnrollmentNotesRequest struct {
	Notes *string `json:"notes"`
}

// EnrollmentService manages student-course registrations.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  enrollmentStudentRepository
	courses   enrollmentCourseRepository
	classes   enrollmentClassRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService creates an instance of EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students enrollmentStudentRepository, courses enrollmentCourseRepository, classes enrollmentClassRepository, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{repo: repo, students: students, courses: courses, classes: classes, validator: validate, logger: logger}
}

// List returns paginated enrollment details. Student principals are
// restricted to their own rows before this is called.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns an enrollment detail by ID.
func (s *EnrollmentService) Get(ctx context.Context, id int64) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// Enroll registers a student in a course. The operation is idempotent:
// an existing enrollment for the pair, in any status, is returned
// unchanged rather than rejected or duplicated.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	existing, err := s.repo.FindByStudentAndCourse(ctx, req.StudentID, req.CourseID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}

	enrollment := &models.Enrollment{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Status:    models.EnrollmentStatusActive,
		Notes:     req.Notes,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		// A concurrent enroll can win the race past the pre-check; the
		// unique constraint turns that into a duplicate-key error and
		// the pair is already enrolled, which is the requested state.
		var domainErr *appErrors.Error
		if errors.As(err, &domainErr) && domainErr.Code == appErrors.ErrDuplicateKey.Code {
			existing, findErr := s.repo.FindByStudentAndCourse(ctx, req.StudentID, req.CourseID)
			if findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, asDomainError(err, "failed to create enrollment")
	}

	s.logger.Info("student enrolled", zap.Int64("student_id", req.StudentID), zap.Int64("course_id", req.CourseID))
	return enrollment, true, nil
}

// EnrollClass registers every active student whose class label matches
// the class room's code into the course. Students already enrolled, in
// any status, are skipped; the result reports how many rows were
// actually created.
func (s *EnrollmentService) EnrollClass(ctx context.Context, req EnrollClassRequest) (*EnrollClassResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class enrollment payload")
	}

	class, err := s.classes.FindByID(ctx, req.ClassRoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class room")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	members, err := s.students.FindClassMembers(ctx, class.ClassCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class members")
	}

	result := &EnrollClassResult{ClassMembers: len(members)}
	for _, member := range members {
		_, created, err := s.Enroll(ctx, EnrollRequest{StudentID: member.ID, CourseID: req.CourseID})
		if err != nil {
			return nil, err
		}
		if created {
			result.Enrolled++
		} else {
			result.Skipped++
		}
	}

	s.logger.Info("class enrolled in course",
		zap.Int64("class_id", req.ClassRoomID),
		zap.Int64("course_id", req.CourseID),
		zap.Int("enrolled", result.Enrolled),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// UpdateStatus moves an enrollment to a new status.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id int64, req UpdateEnrollmentStatusRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown enrollment status")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !detail.Status.CanTransition(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "status transition not allowed")
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	detail.Status = req.Status
	return detail, nil
}

// UpdateNotes rewrites the notes on an enrollment.
func (s *EnrollmentService) UpdateNotes(ctx context.Context, id int64, req UpdateEnrollmentNotesRequest) (*models.EnrollmentDetail, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateNotes(ctx, id, req.Notes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notes")
	}

	detail.Notes = req.Notes
	return detail, nil
}

// Deactivate hides an enrollment from listings without deleting it.
func (s *EnrollmentService) Deactivate(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate enrollment")
	}
	return nil
}
