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

type classRoomRepository interface {
	List(ctx context.Context, filter models.ClassRoomFilter) ([]models.ClassRoomDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.ClassRoomDetail, error)
	ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error)
	CreateWithCourses(ctx context.Context, class *models.ClassRoom, courseIDs []int64) error
	UpdateWithCourses(ctx context.Context, class *models.ClassRoom, courseIDs []int64) error
	HardDelete(ctx context.Context, id int64) error
}

type classStudentCounter interface {
	CountActiveByClass(ctx context.Context, classCode string) (int, error)
}

// ClassRoomRequest is the payload for creating and updating class rooms.
// CourseIDs is the desired course set; duplicates are collapsed.
type ClassRoomRequest struct {
	ClassCode         string  `json:"class_code" validate:"required"`
	ClassName         string  `json:"class_name" validate:"required"`
	Department        string  `json:"department" validate:"required"`
	AcademicYear      string  `json:"academic_year" validate:"required"`
	HomeroomTeacherID *int64  `json:"homeroom_teacher_id"`
	CourseIDs         []int64 `json:"course_ids"`
}

// ClassRoomService manages class rooms and their course sets.
type ClassRoomService struct {
	repo      classRoomRepository
	students  classStudentCounter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassRoomService creates an instance of ClassRoomService.
func NewClassRoomService(repo classRoomRepository, students classStudentCounter, validate *validator.Validate, logger *zap.Logger) *ClassRoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassRoomService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns paginated class-room details. Teacher principals see
// only classes they lead as homeroom teacher.
func (s *ClassRoomService) List(ctx context.Context, principal models.Principal, filter models.ClassRoomFilter) ([]models.ClassRoomDetail, *models.Pagination, error) {
	if principal.Role == models.RoleTeacher {
		if !principal.HasProfile() {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile for account")
		}
		filter.HomeroomTeacherID = principal.ProfileID
	}

	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class rooms")
	}
	return classes, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a class-room detail by ID.
func (s *ClassRoomService) Get(ctx context.Context, id int64) (*models.ClassRoomDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class room")
	}
	return detail, nil
}

// Create adds a class room along with its initial course set.
func (s *ClassRoomService) Create(ctx context.Context, req ClassRoomRequest) (*models.ClassRoomDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class room payload")
	}

	taken, err := s.repo.ExistsByCode(ctx, req.ClassCode, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class code uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "class code already exists")
	}

	class := &models.ClassRoom{
		ClassCode:         req.ClassCode,
		ClassName:         req.ClassName,
		Department:        req.Department,
		AcademicYear:      req.AcademicYear,
		HomeroomTeacherID: req.HomeroomTeacherID,
		IsActive:          true,
	}
	if err := s.repo.CreateWithCourses(ctx, class, dedupeIDs(req.CourseIDs)); err != nil {
		return nil, asDomainError(err, "failed to create class room")
	}

	s.logger.Info("class room created", zap.Int64("class_id", class.ID), zap.String("class_code", class.ClassCode))
	return s.Get(ctx, class.ID)
}

// Update edits a class room and reconciles its course set against the
// requested ids: links not in the set are removed, missing ones are
// added, the rest are left alone.
func (s *ClassRoomService) Update(ctx context.Context, id int64, req ClassRoomRequest) (*models.ClassRoomDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class room payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByCode(ctx, req.ClassCode, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class code uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "class code already exists")
	}

	class := detail.ClassRoom
	class.ClassCode = req.ClassCode
	class.ClassName = req.ClassName
	class.Department = req.Department
	class.AcademicYear = req.AcademicYear
	class.HomeroomTeacherID = req.HomeroomTeacherID

	if err := s.repo.UpdateWithCourses(ctx, &class, dedupeIDs(req.CourseIDs)); err != nil {
		return nil, asDomainError(err, "failed to update class room")
	}
	return s.Get(ctx, id)
}

// Delete removes a class room permanently. Active students still
// carrying the class label block the removal.
func (s *ClassRoomService) Delete(ctx context.Context, id int64) error {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.students.CountActiveByClass(ctx, detail.ClassCode)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count class students")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "class has active students")
	}

	if err := s.repo.HardDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class room")
	}

	s.logger.Info("class room deleted", zap.Int64("class_id", id))
	return nil
}

// dedupeIDs collapses repeated ids preserving first-seen order.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
