package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sims-platform/sims-api/internal/models"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
)

type mockTeacherRepo struct {
	byID        map[int64]models.TeacherDetail
	codes       map[string]bool
	deactivated []int64
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error) {
	out := make([]models.TeacherDetail, 0, len(m.byID))
	for _, d := range m.byID {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id int64) (*models.TeacherDetail, error) {
	if d, ok := m.byID[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	return m.codes[code], nil
}

func (m *mockTeacherRepo) CreateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	user.ID = 300
	teacher.ID = 40
	teacher.UserID = user.ID
	if m.byID == nil {
		m.byID = map[int64]models.TeacherDetail{}
	}
	m.byID[teacher.ID] = models.TeacherDetail{
		Teacher:  *teacher,
		Username: user.Username,
		FullName: user.FullName,
		Email:    user.Email,
		Phone:    user.Phone,
	}
	return nil
}

func (m *mockTeacherRepo) UpdateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	m.byID[teacher.ID] = models.TeacherDetail{
		Teacher:  *teacher,
		Username: user.Username,
		FullName: user.FullName,
		Email:    user.Email,
		Phone:    user.Phone,
	}
	return nil
}

func (m *mockTeacherRepo) Deactivate(ctx context.Context, id int64) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

type mockTeacherUsers struct {
	byID      map[int64]models.User
	usernames map[string]bool
	emails    map[string]bool
}

func (m *mockTeacherUsers) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherUsers) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	return m.usernames[username], nil
}

func (m *mockTeacherUsers) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return m.emails[email], nil
}

func createTeacherRequest() CreateTeacherRequest {
	return CreateTeacherRequest{
		TeacherCode: "T001",
		Username:    "jdoe",
		Password:    "changeit123",
		FullName:    "Jane Doe",
		Email:       "jdoe@example.com",
		Department:  "Mathematics",
	}
}

func TestTeacherServiceCreateProvisionsAccount(t *testing.T) {
	repo := &mockTeacherRepo{}
	users := &mockTeacherUsers{}
	svc := NewTeacherService(repo, users, fakeVerifier{}, nil, nil)

	detail, err := svc.Create(context.Background(), createTeacherRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(40), detail.ID)
	assert.Equal(t, int64(300), detail.UserID)
	assert.Equal(t, "T001", detail.TeacherCode)
	assert.True(t, detail.IsActive)
	assert.False(t, detail.HireDate.IsZero())
}

func TestTeacherServiceCreateRejectsDuplicateCode(t *testing.T) {
	repo := &mockTeacherRepo{codes: map[string]bool{"T001": true}}
	svc := NewTeacherService(repo, &mockTeacherUsers{}, fakeVerifier{}, nil, nil)

	_, err := svc.Create(context.Background(), createTeacherRequest())
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrDuplicateKey.Code, domainErr.Code)
}

func TestTeacherServiceCreateRejectsTakenUsername(t *testing.T) {
	users := &mockTeacherUsers{usernames: map[string]bool{"jdoe": true}}
	svc := NewTeacherService(&mockTeacherRepo{}, users, fakeVerifier{}, nil, nil)

	_, err := svc.Create(context.Background(), createTeacherRequest())
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrDuplicateKey.Code, domainErr.Code)
}

func TestTeacherServiceUpdateEditsProfileAndAccount(t *testing.T) {
	hired := time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockTeacherRepo{byID: map[int64]models.TeacherDetail{
		40: {
			Teacher:  models.Teacher{ID: 40, TeacherCode: "T001", UserID: 300, Department: "Mathematics", HireDate: hired, IsActive: true},
			Username: "jdoe",
			FullName: "Jane Doe",
			Email:    "jdoe@example.com",
		},
	}}
	users := &mockTeacherUsers{byID: map[int64]models.User{
		300: {ID: 300, Username: "jdoe", FullName: "Jane Doe", Email: "jdoe@example.com", Role: models.RoleTeacher, IsActive: true},
	}}
	svc := NewTeacherService(repo, users, fakeVerifier{}, nil, nil)

	detail, err := svc.Update(context.Background(), 40, UpdateTeacherRequest{
		TeacherCode: "T001",
		Username:    "jdoe",
		FullName:    "Jane D. Doe",
		Email:       "jane.doe@example.com",
		Department:  "Physics",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane D. Doe", detail.FullName)
	assert.Equal(t, "jane.doe@example.com", detail.Email)
	assert.Equal(t, "Physics", detail.Department)
	assert.Equal(t, hired, detail.HireDate)
}

func TestTeacherServiceDeleteDeactivatesProfile(t *testing.T) {
	repo := &mockTeacherRepo{byID: map[int64]models.TeacherDetail{
		40: {Teacher: models.Teacher{ID: 40, TeacherCode: "T001", UserID: 300, IsActive: true}},
	}}
	svc := NewTeacherService(repo, &mockTeacherUsers{}, fakeVerifier{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), 40))
	assert.Equal(t, []int64{40}, repo.deactivated)
}

func TestTeacherServiceDeleteUnknownTeacher(t *testing.T) {
	svc := NewTeacherService(&mockTeacherRepo{}, &mockTeacherUsers{}, fakeVerifier{}, nil, nil)

	err := svc.Delete(context.Background(), 404)
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, domainErr.Code)
}
