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

type pairKey struct {
	studentID int64
	courseID  int64
}

type mockEnrollmentRepo struct {
	byPair    map[pairKey]models.Enrollment
	byID      map[int64]models.EnrollmentDetail
	nextID    int64
	createErr error
	created   int
	statuses  map[int64]models.EnrollmentStatus
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id int64) (*models.EnrollmentDetail, error) {
	if d, ok := m.byID[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	if e, ok := m.byPair[pairKey{studentID, courseID}]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.byPair == nil {
		m.byPair = make(map[pairKey]models.Enrollment)
	}
	m.nextID++
	enrollment.ID = m.nextID
	m.byPair[pairKey{enrollment.StudentID, enrollment.CourseID}] = *enrollment
	m.created++
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[int64]models.EnrollmentStatus)
	}
	m.statuses[id] = status
	if d, ok := m.byID[id]; ok {
		d.Status = status
		m.byID[id] = d
	}
	return nil
}

func (m *mockEnrollmentRepo) UpdateNotes(ctx context.Context, id int64, notes *string) error {
	if d, ok := m.byID[id]; ok {
		d.Notes = notes
		m.byID[id] = d
	}
	return nil
}

func (m *mockEnrollmentRepo) Deactivate(ctx context.Context, id int64) error { return nil }

type mockEnrollmentStudents struct {
	byID    map[int64]models.StudentDetail
	members map[string][]models.Student
}

func (m *mockEnrollmentStudents) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	if s, ok := m.byID[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentStudents) FindClassMembers(ctx context.Context, classCode string) ([]models.Student, error) {
	return m.members[classCode], nil
}

type mockEnrollmentCourses struct {
	byID map[int64]models.Course
}

func (m *mockEnrollmentCourses) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := m.byID[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockEnrollmentClasses struct {
	byID map[int64]models.ClassRoomDetail
}

func (m *mockEnrollmentClasses) FindByID(ctx context.Context, id int64) (*models.ClassRoomDetail, error) {
	if c, ok := m.byID[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func newEnrollmentFixtures() (*mockEnrollmentRepo, *mockEnrollmentStudents, *mockEnrollmentCourses, *mockEnrollmentClasses) {
	repo := &mockEnrollmentRepo{}
	students := &mockEnrollmentStudents{byID: map[int64]models.StudentDetail{
		1: {Student: models.Student{ID: 1, StudentCode: "S001", Class: "10A", IsActive: true}},
	}}
	courses := &mockEnrollmentCourses{byID: map[int64]models.Course{
		2: {ID: 2, CourseCode: "MATH101", IsActive: true},
	}}
	classes := &mockEnrollmentClasses{byID: map[int64]models.ClassRoomDetail{
		3: {ClassRoom: models.ClassRoom{ID: 3, ClassCode: "10A"}},
	}}
	return repo, students, courses, classes
}

func TestEnrollmentServiceEnrollCreates(t *testing.T) {
	repo, students, courses, classes := newEnrollmentFixtures()
	svc := NewEnrollmentService(repo, students, courses, classes, nil, nil)

	enrollment, created, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 1, CourseID: 2})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.True(t, enrollment.IsActive)
	assert.NotZero(t, enrollment.ID)
}

func TestEnrollmentServiceEnrollIsIdempotent(t *testing.T) {
	repo, students, courses, classes := newEnrollmentFixtures()
	repo.byPair = map[pairKey]models.Enrollment{
		{1, 2}: {ID: 50, StudentID: 1, CourseID: 2, Status: models.EnrollmentStatusDropped},
	}
	svc := NewEnrollmentService(repo, students, courses, classes, nil, nil)

	enrollment, created, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 1, CourseID: 2})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(50), enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusDropped, enrollment.Status)
	assert.Zero(t, repo.created)
}

func TestEnrollmentServiceEnrollUnknownStudent(t *testing.T) {
	repo, students, courses, classes := newEnrollmentFixtures()
	svc := NewEnrollmentService(repo, students, courses, classes, nil, nil)

	_, _, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: 99, CourseID: 2})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, domainErr.Code)
}

func TestEnrollmentServiceEnrollClassSkipsExisting(t *testing.T) {
	repo, students, courses, classes := newEnrollmentFixtures()
	students.byID[4] = models.StudentDetail{Student: models.Student{ID: 4, Class: "10A", IsActive: true}}
	students.byID[5] = models.StudentDetail{Student: models.Student{ID: 5, Class: "10A", IsActive: true}}
	students.members = map[string][]models.Student{"10A": {
		{ID: 1, Class: "10A"}, {ID: 4, Class: "10A"}, {ID: 5, Class: "10A"},
	}}
	repo.byPair = map[pairKey]models.Enrollment{
		{1, 2}: {ID: 7, StudentID: 1, CourseID: 2, Status: models.EnrollmentStatusActive},
	}
	svc := NewEnrollmentService(repo, students, courses, classes, nil, nil)

	result, err := svc.EnrollClass(context.Background(), EnrollClassRequest{ClassRoomID: 3, CourseID: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ClassMembers)
	assert.Equal(t, 2, result.Enrolled)
	assert.Equal(t, 1, result.Skipped)
}

func TestEnrollmentServiceUpdateStatusRejectsUnknownValue(t *testing.T) {
	repo, students, courses, classes := newEnrollmentFixtures()
	repo.byID = map[int64]models.EnrollmentDetail{
		7: {Enrollment: models.Enrollment{ID: 7, Status: models.EnrollmentStatusActive}},
	}
	svc := NewEnrollmentService(repo, students, courses, classes, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), 7, UpdateEnrollmentStatusRequest{Status: models.EnrollmentStatus("Paused")})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrValidation.Code, domainErr.Code)
}

func TestEnrollmentServiceUpdateStatusMovesEnrollment(t *testing.T) {
	repo, students, courses, classes := newEnrollmentFixtures()
	repo.byID = map[int64]models.EnrollmentDetail{
		7: {Enrollment: models.Enrollment{ID: 7, Status: models.EnrollmentStatusActive}},
	}
	svc := NewEnrollmentService(repo, students, courses, classes, nil, nil)

	detail, err := svc.UpdateStatus(context.Background(), 7, UpdateEnrollmentStatusRequest{Status: models.EnrollmentStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCompleted, detail.Status)
	assert.Equal(t, models.EnrollmentStatusCompleted, repo.statuses[7])
}
