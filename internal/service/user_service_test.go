package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sims-platform/sims-api/internal/models"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
)

type mockUserRepo struct {
	users        map[int64]models.User
	usernames    map[string]bool
	emails       map[string]bool
	activeAdmins int
	created      *models.User
	updated      *models.User
	deactivated  []int64
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	return m.usernames[username], nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return m.emails[email], nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = 100
	m.created = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.updated = user
	return nil
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id int64) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *mockUserRepo) CountActiveAdmins(ctx context.Context) (int, error) {
	return m.activeAdmins, nil
}

func TestUserServiceCreateHashesPassword(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, fakeVerifier{}, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "jdoe",
		Password: "secret123",
		FullName: "John Doe",
		Email:    "jdoe@school.test",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.ID)
	assert.Equal(t, "hash:secret123", repo.created.PasswordHash)
	assert.True(t, repo.created.IsActive)
}

func TestUserServiceCreateRejectsDuplicateUsername(t *testing.T) {
	repo := &mockUserRepo{usernames: map[string]bool{"jdoe": true}}
	svc := NewUserService(repo, fakeVerifier{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "jdoe",
		Password: "secret123",
		FullName: "John Doe",
		Email:    "jdoe@school.test",
		Role:     models.RoleStudent,
	})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrDuplicateKey.Code, domainErr.Code)
	assert.Nil(t, repo.created)
}

func TestUserServiceCreateRejectsUnknownRole(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, fakeVerifier{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "jdoe",
		Password: "secret123",
		FullName: "John Doe",
		Email:    "jdoe@school.test",
		Role:     models.UserRole("Superuser"),
	})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrValidation.Code, domainErr.Code)
}

func TestUserServiceDeleteDeactivatesInsteadOfRemoving(t *testing.T) {
	repo := &mockUserRepo{
		users: map[int64]models.User{5: {ID: 5, Role: models.RoleStudent, IsActive: true}},
	}
	svc := NewUserService(repo, fakeVerifier{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), 5))
	assert.Equal(t, []int64{5}, repo.deactivated)
}

func TestUserServiceDeleteRefusesLastActiveAdmin(t *testing.T) {
	repo := &mockUserRepo{
		users:        map[int64]models.User{1: {ID: 1, Role: models.RoleAdmin, IsActive: true}},
		activeAdmins: 1,
	}
	svc := NewUserService(repo, fakeVerifier{}, nil, nil)

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, domainErr.Code)
	assert.Empty(t, repo.deactivated)
}

func TestUserServiceDeleteAdminWithPeers(t *testing.T) {
	repo := &mockUserRepo{
		users:        map[int64]models.User{1: {ID: 1, Role: models.RoleAdmin, IsActive: true}},
		activeAdmins: 2,
	}
	svc := NewUserService(repo, fakeVerifier{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.Equal(t, []int64{1}, repo.deactivated)
}
