package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sims-platform/sims-api/internal/models"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	deletes []string
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletes = append(m.deletes, pattern)
	m.entries = nil
	return nil
}

type mockDashboardRepo struct {
	adminCalls   int
	teacherCalls int
	studentCalls int
}

func (m *mockDashboardRepo) AdminCounts(ctx context.Context) (*models.AdminDashboard, error) {
	m.adminCalls++
	return &models.AdminDashboard{TotalStudents: 120, TotalTeachers: 15, TotalAdmins: 2}, nil
}

func (m *mockDashboardRepo) TeacherCounts(ctx context.Context, teacherID int64) (*models.TeacherDashboard, error) {
	m.teacherCalls++
	return &models.TeacherDashboard{AssignedCourses: 3, ActiveStudents: 80}, nil
}

func (m *mockDashboardRepo) StudentCounts(ctx context.Context, studentID int64) (*models.StudentDashboard, error) {
	m.studentCalls++
	return &models.StudentDashboard{ActiveEnrollments: 5, AverageGrade: 82.25}, nil
}

func newDashboardFixture() (*mockDashboardRepo, *memoryCacheRepo, *DashboardService) {
	repo := &mockDashboardRepo{}
	cacheRepo := &memoryCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	return repo, cacheRepo, NewDashboardService(repo, cacheSvc, time.Minute, nil)
}

func TestDashboardServiceAdminCachesResult(t *testing.T) {
	repo, _, svc := newDashboardFixture()

	first, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, first.TotalStudents)

	second, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.adminCalls)
}

func TestDashboardServiceTeacherRequiresProfile(t *testing.T) {
	_, _, svc := newDashboardFixture()

	_, err := svc.Teacher(context.Background(), models.Principal{Role: models.RoleTeacher})
	require.Error(t, err)
}

func TestDashboardServiceStudentKeyedPerProfile(t *testing.T) {
	repo, cacheRepo, svc := newDashboardFixture()

	principal := models.Principal{UserID: 1, Role: models.RoleStudent, ProfileID: 12}
	_, err := svc.Student(context.Background(), principal)
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.entries, "dashboard:student:12")
	assert.Equal(t, 1, repo.studentCalls)
}

func TestDashboardServiceInvalidateDropsAllKeys(t *testing.T) {
	repo, cacheRepo, svc := newDashboardFixture()

	_, err := svc.Admin(context.Background())
	require.NoError(t, err)

	svc.Invalidate(context.Background())
	assert.Equal(t, []string{"dashboard:*"}, cacheRepo.deletes)

	_, err = svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.adminCalls)
}

func TestDashboardServiceWorksWithCacheDisabled(t *testing.T) {
	repo := &mockDashboardRepo{}
	cacheSvc := NewCacheService(nil, nil, time.Minute, nil, false)
	svc := NewDashboardService(repo, cacheSvc, time.Minute, nil)

	_, err := svc.Admin(context.Background())
	require.NoError(t, err)
	_, err = svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.adminCalls)
}
