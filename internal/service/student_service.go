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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
	ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error)
	CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error
	UpdateWithUser(ctx context.Context, user *models.User, student *models.Student) error
	HasBlockingEnrollments(ctx context.Context, studentID int64) (bool, error)
	HardDelete(ctx context.Context, id int64) error
}

type homeroomClassLister interface {
	ListByHomeroomTeacher(ctx context.Context, teacherID int64) ([]models.ClassRoom, error)
}

type studentUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Deactivate(ctx context.Context, id int64) error
}

// CreateStudentRequest creates a student profile and its account together.
type CreateStudentRequest struct {
	StudentCode    string     `json:"student_code" validate:"required"`
	Username       string     `json:"username" validate:"required,min=3"`
	Password       string     `json:"password" validate:"required,min=8"`
	FullName       string     `json:"full_name" validate:"required"`
	Email          string     `json:"email" validate:"required,email"`
	Phone          *string    `json:"phone"`
	Class          string     `json:"class"`
	Major          string     `json:"major" validate:"required"`
	EnrollmentDate *time.Time `json:"enrollment_date"`
	AdvisorID      *int64     `json:"advisor_id"`
}

// UpdateStudentRequest edits a student profile and its account fields.
type UpdateStudentRequest struct {
	StudentCode    string     `json:"student_code" validate:"required"`
	Username       string     `json:"username" validate:"required,min=3"`
	FullName       string     `json:"full_name" validate:"required"`
	Email          string     `json:"email" validate:"required,email"`
	Phone          *string    `json:"phone"`
	Class          string     `json:"class"`
	Major          string     `json:"major" validate:"required"`
	EnrollmentDate *time.Time `json:"enrollment_date"`
	AdvisorID      *int64     `json:"advisor_id"`
}

// StudentService manages student profiles and their paired accounts.
type StudentService struct {
	repo      studentRepository
	users     studentUserRepository
	homerooms homeroomClassLister
	verifier  CredentialVerifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates an instance of StudentService.
func NewStudentService(repo studentRepository, users studentUserRepository, homerooms homeroomClassLister, verifier CredentialVerifier, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if verifier == nil {
		verifier = BcryptVerifier{}
	}
	return &StudentService{repo: repo, users: users, homerooms: homerooms, verifier: verifier, validator: validate, logger: logger}
}

// List returns paginated student details. Teacher principals see only
// students whose class label matches one of their homeroom classes.
func (s *StudentService) List(ctx context.Context, principal models.Principal, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	if principal.Role == models.RoleTeacher {
		if !principal.HasProfile() {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile for account")
		}
		codes, err := s.homeroomCodes(ctx, principal.ProfileID)
		if err != nil {
			return nil, nil, err
		}
		if len(codes) == 0 {
			return []models.StudentDetail{}, paginationFor(filter.Page, filter.PageSize, 0), nil
		}
		filter.Classes = codes
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

func (s *StudentService) homeroomCodes(ctx context.Context, teacherID int64) ([]string, error) {
	classes, err := s.homerooms.ListByHomeroomTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homeroom classes")
	}
	codes := make([]string, 0, len(classes))
	for _, class := range classes {
		codes = append(codes, class.ClassCode)
	}
	return codes, nil
}

// Get returns a student detail by ID.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.StudentDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return detail, nil
}

// Create registers a student: one account plus one profile, atomically.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create student payload")
	}

	if err := s.checkDuplicates(ctx, req.Username, req.Email, req.StudentCode, 0, 0); err != nil {
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
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	enrollmentDate := time.Now().UTC()
	if req.EnrollmentDate != nil {
		enrollmentDate = *req.EnrollmentDate
	}
	student := &models.Student{
		StudentCode:    req.StudentCode,
		Class:          req.Class,
		Major:          req.Major,
		EnrollmentDate: enrollmentDate,
		AdvisorID:      req.AdvisorID,
		IsActive:       true,
	}

	if err := s.repo.CreateWithUser(ctx, user, student); err != nil {
		return nil, asDomainError(err, "failed to create student")
	}

	s.logger.Info("student created", zap.Int64("student_id", student.ID), zap.String("student_code", student.StudentCode))
	return s.Get(ctx, student.ID)
}

// Update edits a student profile and its account.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update student payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, detail.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student account")
	}

	if err := s.checkDuplicates(ctx, req.Username, req.Email, req.StudentCode, user.ID, id); err != nil {
		return nil, err
	}

	user.Username = req.Username
	user.FullName = req.FullName
	user.Email = req.Email
	user.Phone = req.Phone

	student := detail.Student
	student.StudentCode = req.StudentCode
	student.Class = req.Class
	student.Major = req.Major
	student.AdvisorID = req.AdvisorID
	if req.EnrollmentDate != nil {
		student.EnrollmentDate = *req.EnrollmentDate
	}

	if err := s.repo.UpdateWithUser(ctx, user, &student); err != nil {
		return nil, asDomainError(err, "failed to update student")
	}
	return s.Get(ctx, id)
}

// Delete removes a student permanently, but only when no enrollment in
// Active or Dropped status remains. A history holding only Completed
// courses does not block removal. The paired account is deactivated
// rather than deleted.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	blocked, err := s.repo.HasBlockingEnrollments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollments")
	}
	if blocked {
		return appErrors.Clone(appErrors.ErrConflict, "student has active or dropped enrollments")
	}

	if err := s.repo.HardDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	if err := s.users.Deactivate(ctx, detail.UserID); err != nil {
		s.logger.Warn("failed to deactivate student account", zap.Int64("user_id", detail.UserID), zap.Error(err))
	}

	s.logger.Info("student deleted", zap.Int64("student_id", id))
	return nil
}

func (s *StudentService) checkDuplicates(ctx context.Context, username, email, code string, excludeUserID, excludeStudentID int64) error {
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

	taken, err = s.repo.ExistsByCode(ctx, code, excludeStudentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student code uniqueness")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrDuplicateKey, "student code already exists")
	}
	return nil
}
