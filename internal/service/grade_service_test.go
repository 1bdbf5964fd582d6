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

type mockGradeRepo struct {
	created  *models.Grade
	grades   []models.GradeDetail
	average  float64
	lastList models.GradeFilter
}

func (m *mockGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error) {
	m.lastList = filter
	return m.grades, len(m.grades), nil
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	grade.ID = 31
	m.created = grade
	return nil
}

func (m *mockGradeRepo) AverageScore(ctx context.Context, studentID int64) (float64, error) {
	return m.average, nil
}

type mockGradeEnrollments struct {
	byPair map[pairKey]models.Enrollment
}

func (m *mockGradeEnrollments) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	if e, ok := m.byPair[pairKey{studentID, courseID}]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

type mockGradeAssignments struct {
	active map[pairKey]bool
}

func (m *mockGradeAssignments) ExistsActive(ctx context.Context, courseID, teacherID int64) (bool, error) {
	return m.active[pairKey{courseID, teacherID}], nil
}

func teacherPrincipal(profileID int64) models.Principal {
	return models.Principal{UserID: 20, Role: models.RoleTeacher, ProfileID: profileID}
}

func TestGradeServiceRecordRequiresTeacherRole(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, &mockGradeAssignments{}, &mockStudentRepo{}, &mockHomeroomClasses{}, nil, nil)

	_, err := svc.Record(context.Background(), models.Principal{Role: models.RoleAdmin}, RecordGradeRequest{
		StudentID: 1, CourseID: 2, GradeType: models.GradeTypeFinal, Score: 90,
	})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, domainErr.Code)
}

func TestGradeServiceRecordRequiresActiveAssignment(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, &mockGradeAssignments{}, &mockStudentRepo{}, &mockHomeroomClasses{}, nil, nil)

	_, err := svc.Record(context.Background(), teacherPrincipal(4), RecordGradeRequest{
		StudentID: 1, CourseID: 2, GradeType: models.GradeTypeFinal, Score: 90,
	})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, domainErr.Code)
}

func TestGradeServiceRecordRequiresActiveEnrollment(t *testing.T) {
	assignments := &mockGradeAssignments{active: map[pairKey]bool{{2, 4}: true}}
	enrollments := &mockGradeEnrollments{byPair: map[pairKey]models.Enrollment{
		{1, 2}: {ID: 9, StudentID: 1, CourseID: 2, Status: models.EnrollmentStatusDropped},
	}}
	svc := NewGradeService(&mockGradeRepo{}, enrollments, assignments, &mockStudentRepo{}, &mockHomeroomClasses{}, nil, nil)

	_, err := svc.Record(context.Background(), teacherPrincipal(4), RecordGradeRequest{
		StudentID: 1, CourseID: 2, GradeType: models.GradeTypeFinal, Score: 90,
	})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, domainErr.Code)
}

func TestGradeServiceRecordStampsTeacherAndEnrollment(t *testing.T) {
	repo := &mockGradeRepo{}
	assignments := &mockGradeAssignments{active: map[pairKey]bool{{2, 4}: true}}
	enrollments := &mockGradeEnrollments{byPair: map[pairKey]models.Enrollment{
		{1, 2}: {ID: 9, StudentID: 1, CourseID: 2, Status: models.EnrollmentStatusActive},
	}}
	svc := NewGradeService(repo, enrollments, assignments, &mockStudentRepo{}, &mockHomeroomClasses{}, nil, nil)

	grade, err := svc.Record(context.Background(), teacherPrincipal(4), RecordGradeRequest{
		StudentID: 1, CourseID: 2, GradeType: models.GradeTypeMidterm, Score: 87.5, Weight: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), grade.TeacherID)
	assert.Equal(t, int64(9), grade.EnrollmentID)
	assert.True(t, grade.IsActive)
	require.NotNil(t, repo.created)
	assert.Equal(t, 87.5, repo.created.Score)
}

func TestGradeServiceListScopesStudentToOwnGrades(t *testing.T) {
	repo := &mockGradeRepo{}
	svc := NewGradeService(repo, &mockGradeEnrollments{}, &mockGradeAssignments{}, &mockStudentRepo{}, &mockHomeroomClasses{}, nil, nil)

	principal := models.Principal{UserID: 30, Role: models.RoleStudent, ProfileID: 12}
	_, _, err := svc.List(context.Background(), principal, models.GradeFilter{StudentID: 999})
	require.NoError(t, err)
	assert.Equal(t, int64(12), repo.lastList.StudentID)
}

func TestGradeServiceListRefusesStudentWithoutProfile(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, &mockGradeAssignments{}, &mockStudentRepo{}, &mockHomeroomClasses{}, nil, nil)

	principal := models.Principal{UserID: 30, Role: models.RoleStudent}
	_, _, err := svc.List(context.Background(), principal, models.GradeFilter{})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, domainErr.Code)
}

func TestGradeServiceComputeAverageIsUnweighted(t *testing.T) {
	repo := &mockGradeRepo{average: 82.25}
	svc := NewGradeService(repo, &mockGradeEnrollments{}, &mockGradeAssignments{}, &mockStudentRepo{}, &mockHomeroomClasses{}, nil, nil)

	avg, err := svc.ComputeAverage(context.Background(), models.Principal{UserID: 1, Role: models.RoleAdmin}, 12)
	require.NoError(t, err)
	assert.InDelta(t, 82.25, avg, 0.0001)
}

func TestGradeServiceAverageStudentLimitedToSelf(t *testing.T) {
	repo := &mockGradeRepo{average: 70}
	svc := NewGradeService(repo, &mockGradeEnrollments{}, &mockGradeAssignments{}, &mockStudentRepo{}, &mockHomeroomClasses{}, nil, nil)

	principal := models.Principal{UserID: 30, Role: models.RoleStudent, ProfileID: 12}

	avg, err := svc.ComputeAverage(context.Background(), principal, 12)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, avg, 0.0001)

	_, err = svc.ComputeAverage(context.Background(), principal, 13)
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, domainErr.Code)
}

func TestGradeServiceAverageTeacherLimitedToHomeroomStudents(t *testing.T) {
	repo := &mockGradeRepo{average: 88}
	students := &mockStudentRepo{byID: map[int64]models.StudentDetail{
		12: {Student: models.Student{ID: 12, Class: "CSE01"}},
		13: {Student: models.Student{ID: 13, Class: "EE02"}},
	}}
	homerooms := &mockHomeroomClasses{byTeacher: map[int64][]models.ClassRoom{
		4: {{ID: 3, ClassCode: "CSE01"}},
	}}
	svc := NewGradeService(repo, &mockGradeEnrollments{}, &mockGradeAssignments{}, students, homerooms, nil, nil)

	avg, err := svc.ComputeAverage(context.Background(), teacherPrincipal(4), 12)
	require.NoError(t, err)
	assert.InDelta(t, 88.0, avg, 0.0001)

	_, err = svc.ComputeAverage(context.Background(), teacherPrincipal(4), 13)
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, domainErr.Code)
}

func TestGradeServiceAverageUnknownStudentForTeacher(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, &mockGradeAssignments{}, &mockStudentRepo{}, &mockHomeroomClasses{}, nil, nil)

	_, err := svc.ComputeAverage(context.Background(), teacherPrincipal(4), 404)
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, domainErr.Code)
}
