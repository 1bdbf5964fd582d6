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

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id int64) error
	CountActiveAdmins(ctx context.Context) (int, error)
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Username string          `json:"username" validate:"required,min=3"`
	Password string          `json:"password" validate:"required,min=8"`
	FullName string          `json:"full_name" validate:"required"`
	Email    string          `json:"email" validate:"required,email"`
	Phone    *string         `json:"phone"`
	Role     models.UserRole `json:"role" validate:"required,oneof=Admin Teacher Student"`
}

// UpdateUserRequest represents payload for updating users.
type UpdateUserRequest struct {
	Username string  `json:"username" validate:"required,min=3"`
	FullName string  `json:"full_name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone"`
}

// UserService handles account management workflows.
type UserService struct {
	repo      userRepository
	verifier  CredentialVerifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, verifier CredentialVerifier, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if verifier == nil {
		verifier = BcryptVerifier{}
	}
	return &UserService{repo: repo, verifier: verifier, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create adds a new account. Username and email are checked up front
// for a friendly error; the schema still enforces uniqueness under
// concurrency.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	if err := s.checkDuplicates(ctx, req.Username, req.Email, 0); err != nil {
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
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, asDomainError(err, "failed to create user")
	}

	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update edits the mutable account fields. The role is fixed at
// creation and cannot be changed here.
func (s *UserService) Update(ctx context.Context, id int64, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update user payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicates(ctx, req.Username, req.Email, id); err != nil {
		return nil, err
	}

	user.Username = req.Username
	user.FullName = req.FullName
	user.Email = req.Email
	user.Phone = req.Phone

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, asDomainError(err, "failed to update user")
	}
	return user, nil
}

// Delete deactivates an account. Deleting the last active Admin is
// refused so the system can never lock out administration entirely.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if user.Role == models.RoleAdmin {
		count, err := s.repo.CountActiveAdmins(ctx)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admins")
		}
		if count <= 1 {
			return appErrors.Clone(appErrors.ErrForbidden, "cannot delete the last active admin")
		}
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}

	s.logger.Info("user deactivated", zap.Int64("user_id", id))
	return nil
}

func (s *UserService) checkDuplicates(ctx context.Context, username, email string, excludeID int64) error {
	taken, err := s.repo.ExistsByUsername(ctx, username, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username uniqueness")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrDuplicateKey, "username already exists")
	}

	taken, err = s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrDuplicateKey, "email already exists")
	}
	return nil
}
