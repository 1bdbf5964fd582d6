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

type mockCourseRepo struct {
	byID        map[int64]models.Course
	codes       map[string]bool
	enrollments map[int64]bool
	created     *models.Course
	deleted     []int64
	lastList    models.CourseFilter
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	m.lastList = filter
	return nil, 0, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := m.byID[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	return m.codes[code], nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = 60
	m.created = course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error { return nil }

func (m *mockCourseRepo) HasEnrollments(ctx context.Context, courseID int64) (bool, error) {
	return m.enrollments[courseID], nil
}

func (m *mockCourseRepo) HardDelete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockCourseRepo) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Course, error) {
	return nil, nil
}

func (m *mockCourseRepo) ListByStudent(ctx context.Context, studentID int64) ([]models.Course, error) {
	return nil, nil
}

type mockCourseAssignments struct {
	byID    map[int64]models.CourseAssignmentDetail
	created *models.CourseAssignment
	revoked []int64
}

func (m *mockCourseAssignments) List(ctx context.Context, courseID, teacherID int64) ([]models.CourseAssignmentDetail, error) {
	return nil, nil
}

func (m *mockCourseAssignments) FindByID(ctx context.Context, id int64) (*models.CourseAssignmentDetail, error) {
	if a, ok := m.byID[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseAssignments) Create(ctx context.Context, assignment *models.CourseAssignment) error {
	assignment.ID = 8
	m.created = assignment
	if m.byID == nil {
		m.byID = make(map[int64]models.CourseAssignmentDetail)
	}
	m.byID[assignment.ID] = models.CourseAssignmentDetail{CourseAssignment: *assignment}
	return nil
}

func (m *mockCourseAssignments) Deactivate(ctx context.Context, id int64) error {
	m.revoked = append(m.revoked, id)
	return nil
}

func courseRequest() CourseRequest {
	return CourseRequest{
		CourseCode:   "MATH101",
		CourseName:   "Algebra",
		Credits:      3,
		Duration:     "1 semester",
		Department:   "Mathematics",
		Semester:     "1",
		AcademicYear: "2026/2027",
		MaxStudents:  40,
	}
}

func TestCourseServiceCreate(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := NewCourseService(repo, &mockCourseAssignments{}, nil, nil)

	course, err := svc.Create(context.Background(), courseRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(60), course.ID)
	assert.True(t, course.IsActive)
}

func TestCourseServiceCreateRejectsZeroCredits(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := NewCourseService(repo, &mockCourseAssignments{}, nil, nil)

	req := courseRequest()
	req.Credits = 0
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrValidation.Code, domainErr.Code)
	assert.Nil(t, repo.created)
}

func TestCourseServiceDeleteBlockedByEnrollments(t *testing.T) {
	repo := &mockCourseRepo{
		byID:        map[int64]models.Course{2: {ID: 2, CourseCode: "MATH101"}},
		enrollments: map[int64]bool{2: true},
	}
	svc := NewCourseService(repo, &mockCourseAssignments{}, nil, nil)

	err := svc.Delete(context.Background(), 2)
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrConflict.Code, domainErr.Code)
	assert.Empty(t, repo.deleted)
}

func TestCourseServiceDeleteWithoutEnrollments(t *testing.T) {
	repo := &mockCourseRepo{byID: map[int64]models.Course{2: {ID: 2}}}
	svc := NewCourseService(repo, &mockCourseAssignments{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), 2))
	assert.Equal(t, []int64{2}, repo.deleted)
}

func TestCourseServiceAssignTeacher(t *testing.T) {
	repo := &mockCourseRepo{byID: map[int64]models.Course{2: {ID: 2}}}
	assignments := &mockCourseAssignments{}
	svc := NewCourseService(repo, assignments, nil, nil)

	detail, err := svc.AssignTeacher(context.Background(), AssignTeacherRequest{CourseID: 2, TeacherID: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(8), detail.ID)
	require.NotNil(t, assignments.created)
	assert.True(t, assignments.created.IsActive)
}

func TestCourseServiceAssignTeacherUnknownCourse(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, &mockCourseAssignments{}, nil, nil)

	_, err := svc.AssignTeacher(context.Background(), AssignTeacherRequest{CourseID: 99, TeacherID: 4})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, domainErr.Code)
}

func TestCourseServiceRevokeAssignment(t *testing.T) {
	assignments := &mockCourseAssignments{byID: map[int64]models.CourseAssignmentDetail{
		8: {CourseAssignment: models.CourseAssignment{ID: 8, IsActive: true}},
	}}
	svc := NewCourseService(&mockCourseRepo{}, assignments, nil, nil)

	require.NoError(t, svc.RevokeAssignment(context.Background(), 8))
	assert.Equal(t, []int64{8}, assignments.revoked)
}

func TestCourseServiceListScopesTeacherToAssignments(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := NewCourseService(repo, &mockCourseAssignments{}, nil, nil)

	_, _, err := svc.List(context.Background(), teacherPrincipal(7), models.CourseFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), repo.lastList.TeacherID)
}

func TestCourseServiceListScopesStudentToActiveEnrollments(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := NewCourseService(repo, &mockCourseAssignments{}, nil, nil)

	principal := models.Principal{UserID: 30, Role: models.RoleStudent, ProfileID: 12}
	_, _, err := svc.List(context.Background(), principal, models.CourseFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(12), repo.lastList.StudentID)
}

func TestCourseServiceListRefusesTeacherWithoutProfile(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, &mockCourseAssignments{}, nil, nil)

	_, _, err := svc.List(context.Background(), models.Principal{UserID: 20, Role: models.RoleTeacher}, models.CourseFilter{})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, domainErr.Code)
}
