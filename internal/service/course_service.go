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

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	HasEnrollments(ctx context.Context, courseID int64) (bool, error)
	HardDelete(ctx context.Context, id int64) error
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.Course, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.Course, error)
}

type courseAssignmentRepository interface {
	List(ctx context.Context, courseID, teacherID int64) ([]models.CourseAssignmentDetail, error)
	FindByID(ctx context.Context, id int64) (*models.CourseAssignmentDetail, error)
	Create(ctx context.Context, assignment *models.CourseAssignment) error
	Deactivate(ctx context.Context, id int64) error
}

// CourseRequest is the payload for creating and updating courses.
type CourseRequest struct {
	CourseCode   string  `json:"course_code" validate:"required"`
	CourseName   string  `json:"course_name" validate:"required"`
	Credits      int     `json:"credits" validate:"required,min=1,max=10"`
	Duration     string  `json:"duration" validate:"required"`
	Description  *string `json:"description"`
	Department   string  `json:"department" validate:"required"`
	Semester     string  `json:"semester" validate:"required"`
	AcademicYear string  `json:"academic_year" validate:"required"`
	MaxStudents  int     `json:"max_students" validate:"required,min=1"`
	Fee          float64 `json:"fee" validate:"min=0"`
}

// AssignTeacherRequest links a teacher to a course.
type AssignTeacherRequest struct {
	CourseID  int64   `json:"course_id" validate:"required"`
	TeacherID int64   `json:"teacher_id" validate:"required"`
	Notes     *string `json:"notes"`
}

// CourseService manages the course catalog and teacher assignments.
type CourseService struct {
	repo        courseRepository
	assignments courseAssignmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService creates an instance of CourseService.
func NewCourseService(repo courseRepository, assignments courseAssignmentRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{repo: repo, assignments: assignments, validator: validate, logger: logger}
}

// List returns paginated courses. Teacher principals see only courses
// they hold an active assignment for; students only courses reached
// through an Active enrollment.
func (s *CourseService) List(ctx context.Context, principal models.Principal, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	switch principal.Role {
	case models.RoleTeacher:
		if !principal.HasProfile() {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile for account")
		}
		filter.TeacherID = principal.ProfileID
	case models.RoleStudent:
		if !principal.HasProfile() {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no student profile for account")
		}
		filter.StudentID = principal.ProfileID
	}

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a course by ID.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a new course to the catalog.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	taken, err := s.repo.ExistsByCode(ctx, req.CourseCode, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "course code already exists")
	}

	course := &models.Course{
		CourseCode:   req.CourseCode,
		CourseName:   req.CourseName,
		Credits:      req.Credits,
		Duration:     req.Duration,
		Description:  req.Description,
		Department:   req.Department,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
		MaxStudents:  req.MaxStudents,
		Fee:          req.Fee,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, asDomainError(err, "failed to create course")
	}

	s.logger.Info("course created", zap.Int64("course_id", course.ID), zap.String("course_code", course.CourseCode))
	return course, nil
}

// Update edits a course.
func (s *CourseService) Update(ctx context.Context, id int64, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByCode(ctx, req.CourseCode, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "course code already exists")
	}

	course.CourseCode = req.CourseCode
	course.CourseName = req.CourseName
	course.Credits = req.Credits
	course.Duration = req.Duration
	course.Description = req.Description
	course.Department = req.Department
	course.Semester = req.Semester
	course.AcademicYear = req.AcademicYear
	course.MaxStudents = req.MaxStudents
	course.Fee = req.Fee

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, asDomainError(err, "failed to update course")
	}
	return course, nil
}

// Delete removes a course permanently. Any enrollment row referencing
// the course, regardless of status, blocks the removal.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	blocked, err := s.repo.HasEnrollments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollments")
	}
	if blocked {
		return appErrors.Clone(appErrors.ErrConflict, "course has enrollments")
	}

	if err := s.repo.HardDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.logger.Info("course deleted", zap.Int64("course_id", id))
	return nil
}

// AssignTeacher links a teacher to a course. The pair is unique; a
// repeated assignment surfaces as a duplicate-key error.
func (s *CourseService) AssignTeacher(ctx context.Context, req AssignTeacherRequest) (*models.CourseAssignmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.Get(ctx, req.CourseID); err != nil {
		return nil, err
	}

	assignment := &models.CourseAssignment{
		CourseID:  req.CourseID,
		TeacherID: req.TeacherID,
		Notes:     req.Notes,
		IsActive:  true,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, asDomainError(err, "failed to assign teacher")
	}

	s.logger.Info("teacher assigned to course", zap.Int64("course_id", req.CourseID), zap.Int64("teacher_id", req.TeacherID))
	return s.assignments.FindByID(ctx, assignment.ID)
}

// ListAssignments returns assignment details filtered by course or teacher.
func (s *CourseService) ListAssignments(ctx context.Context, courseID, teacherID int64) ([]models.CourseAssignmentDetail, error) {
	assignments, err := s.assignments.List(ctx, courseID, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// RevokeAssignment deactivates an assignment.
func (s *CourseService) RevokeAssignment(ctx context.Context, id int64) error {
	if _, err := s.assignments.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.assignments.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke assignment")
	}
	return nil
}

// ListByTeacher returns courses the teacher is actively assigned to.
func (s *CourseService) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Course, error) {
	courses, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher courses")
	}
	return courses, nil
}

// ListByStudent returns courses the student is actively enrolled in.
func (s *CourseService) ListByStudent(ctx context.Context, studentID int64) ([]models.Course, error) {
	courses, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student courses")
	}
	return courses, nil
}
