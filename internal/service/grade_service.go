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

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error)
	Create(ctx context.Context, grade *models.Grade) error
	AverageScore(ctx context.Context, studentID int64) (float64, error)
}

type gradeEnrollmentRepository interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
}

type gradeAssignmentRepository interface {
	ExistsActive(ctx context.Context, courseID, teacherID int64) (bool, error)
}

type gradeStudentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
}

// RecordGradeRequest adds one grade entry to an active enrollment.
type RecordGradeRequest struct {
	StudentID int64            `json:"student_id" validate:"required"`
	CourseID  int64            `json:"course_id" validate:"required"`
	GradeType models.GradeType `json:"grade_type" validate:"required,oneof=Assignment Midterm Final Participation"`
	Score     float64          `json:"score" validate:"min=0,max=100"`
	Weight    float64          `json:"weight" validate:"min=0,max=1"`
	Comments  *string          `json:"comments"`
}

// GradeService records grades and computes averages.
type GradeService struct {
	repo        gradeRepository
	enrollments gradeEnrollmentRepository
	assignments gradeAssignmentRepository
	students    gradeStudentRepository
	homerooms   homeroomClassLister
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService creates an instance of GradeService.
func NewGradeService(repo gradeRepository, enrollments gradeEnrollmentRepository, assignments gradeAssignmentRepository, students gradeStudentRepository, homerooms homeroomClassLister, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GradeService{repo: repo, enrollments: enrollments, assignments: assignments, students: students, homerooms: homerooms, validator: validate, logger: logger}
}

// List returns paginated grade details, scoped by the caller's role:
// students see only their own grades, teachers only grades they
// recorded, admins everything.
func (s *GradeService) List(ctx context.Context, principal models.Principal, filter models.GradeFilter) ([]models.GradeDetail, *models.Pagination, error) {
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

	grades, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Record adds a grade entry. Teacher principals must hold an active
// assignment for the course, and the student must have an Active
// enrollment in it; the stored grade references that enrollment.
func (s *GradeService) Record(ctx context.Context, principal models.Principal, req RecordGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	if principal.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers record grades")
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

	grade := &models.Grade{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		TeacherID:    principal.ProfileID,
		EnrollmentID: enrollment.ID,
		GradeType:    req.GradeType,
		Score:        req.Score,
		Weight:       req.Weight,
		Comments:     req.Comments,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}

	s.logger.Info("grade recorded",
		zap.Int64("student_id", req.StudentID),
		zap.Int64("course_id", req.CourseID),
		zap.String("grade_type", string(req.GradeType)),
		zap.Float64("score", req.Score))
	return grade, nil
}

// ComputeAverage returns the unweighted mean of a student's active
// grade scores. Weights are stored with each entry but do not factor
// into this figure. Students may query only themselves; teachers only
// students of a class they lead as homeroom teacher.
func (s *GradeService) ComputeAverage(ctx context.Context, principal models.Principal, studentID int64) (float64, error) {
	switch principal.Role {
	case models.RoleStudent:
		if !principal.HasProfile() || principal.ProfileID != studentID {
			return 0, appErrors.Clone(appErrors.ErrForbidden, "students may query only their own average")
		}
	case models.RoleTeacher:
		if !principal.HasProfile() {
			return 0, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile for account")
		}
		visible, err := s.studentInHomeroom(ctx, principal.ProfileID, studentID)
		if err != nil {
			return 0, err
		}
		if !visible {
			return 0, appErrors.Clone(appErrors.ErrForbidden, "student is not in a class led by this teacher")
		}
	}

	avg, err := s.repo.AverageScore(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute average")
	}
	return avg, nil
}

func (s *GradeService) studentInHomeroom(ctx context.Context, teacherID, studentID int64) (bool, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Class == "" {
		return false, nil
	}

	classes, err := s.homerooms.ListByHomeroomTeacher(ctx, teacherID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homeroom classes")
	}
	for _, class := range classes {
		if class.ClassCode == student.Class {
			return true, nil
		}
	}
	return false, nil
}
