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

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.TeacherDetail, error)
	ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error)
	CreateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error
	UpdateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error
	Deactivate(ctx context.Context, id int64) error
}

type teacherUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
}

// CreateTeacherRequest creates a teacher profile and its account together.
type CreateTeacherRequest struct {
	TeacherCode    string     `json:"teacher_code" validate:"required"`
	Username       string     `json:"username" validate:"required,min=3"`
	Password       string     `json:"password" validate:"required,min=8"`
	FullName       string     `json:"full_name" validate:"required"`
	Email          string     `json:"email" validate:"required,email"`
	Phone          *string    `json:"phone"`
	Department     string     `json:"department" validate:"required"`
	Specialization *string    `json:"specialization"`
	AcademicDegree *string    `json:"academic_degree"`
	HireDate       *time.Time `json:"hire_date"`
}

// UpdateTeacherRequest edits a teacher profile and its account fields.
type UpdateTeacherRequest struct {
	TeacherCode    string     `json:"teacher_code" validate:"required"`
	Username       string     `json:"username" validate:"required,min=3"`
	FullName       string     `json:"full_name" validate:"required"`
	Email          string     `json:"email" validate:"required,email"`
	Phone          *string    `json:"phone"`
	Department     string     `json:"department" validate:"required"`
	Specialization *string    `json:"specialization"`
	AcademicDegree *string    `json:"academic_degree"`
	HireDate       *time.Time `json:"hire_date"`
}

// TeacherService manages teacher profiles and their paired accounts.
type TeacherService struct {
	repo      teacherRepository
	users     teacherUserRepository
	verifier  CredentialVerifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService creates an instance of TeacherService.
func NewTeacherService(repo teacherRepository, users teacherUserRepository, verifier CredentialVerifier, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if verifier == nil {
		verifier = BcryptVerifier{}
	}
	return &TeacherService{repo: repo, users: users, verifier: verifier, validator: validate, logger: logger}
}

// List returns paginated teacher details.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a teacher detail by ID.
func (s *TeacherService) Get(ctx context.Context, id int64) (*models.TeacherDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return detail, nil
}

// Create registers a teacher: one account plus one profile, atomically.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.TeacherDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create teacher payload")
	}

	if err := s.checkDuplicates(ctx, req.Username, req.Email, req.TeacherCode, 0, 0); err != nil {
		return nil, err
	}

	hash, err := s.verifier.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         models.RoleTeacher,
		IsActive:     true,
	}
	hireDate := time.Now().UTC()
	if req.HireDate != nil {
		hireDate = *req.HireDate
	}
	teacher := &models.Teacher{
		TeacherCode:    req.TeacherCode,
		Department:     req.Department,
		Specialization: req.Specialization,
		AcademicDegree: req.AcademicDegree,
		HireDate:       hireDate,
		IsActive:       true,
	}

	if err := s.repo.CreateWithUser(ctx, user, teacher); err != nil {
		return nil, asDomainError(err, "failed to create teacher")
	}

	s.logger.Info("teacher created", zap.Int64("teacher_id", teacher.ID), zap.String("teacher_code", teacher.TeacherCode))
	return s.Get(ctx, teacher.ID)
}

// Update edits a teacher profile and its account.
func (s *TeacherService) Update(ctx context.Context, id int64, req UpdateTeacherRequest) (*models.TeacherDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update teacher payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, detail.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher account")
	}

	if err := s.checkDuplicates(ctx, req.Username, req.Email, req.TeacherCode, user.ID, id); err != nil {
		return nil, err
	}

	user.Username = req.Username
	user.FullName = req.FullName
	user.Email = req.Email
	user.Phone = req.Phone

	teacher := detail.Teacher
	teacher.TeacherCode = req.TeacherCode
	teacher.Department = req.Department
	teacher.Specialization = req.Specialization
	teacher.AcademicDegree = req.AcademicDegree
	if req.HireDate != nil {
		teacher.HireDate = *req.HireDate
	}

	if err := s.repo.UpdateWithUser(ctx, user, &teacher); err != nil {
		return nil, asDomainError(err, "failed to update teacher")
	}
	return s.Get(ctx, id)
}

// Delete deactivates a teacher profile. Assignments and homeroom links
// keep their history; the profile simply stops matching active filters.
func (s *TeacherService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate teacher")
	}
	s.logger.Info("teacher deactivated", zap.Int64("teacher_id", id))
	return nil
}

func (s *TeacherService) checkDuplicates(ctx context.Context, username, email, code string, excludeUserID, excludeTeacherID int64) error {
	taken, err := s.users.ExistsByUsername(ctx, username, excludeUserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username uniqueness")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrDuplicateKey, "username already exists")
	}

	taken, err = s.users.ExistsByEmail(ctx, email, excludeUserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrDuplicateKey, "email already exists")
	}

	taken, err = s.repo.ExistsByCode(ctx, code, excludeTeacherID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher code uniqueness")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrDuplicateKey, "teacher code already exists")
	}
	return nil
}
