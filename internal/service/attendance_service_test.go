package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sims-platform/sims-api/internal/models"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
)

type mockAttendanceRepo struct {
	created  *models.Attendance
	records  []models.AttendanceDetail
	lastList models.AttendanceFilter
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	m.lastList = filter
	return m.records, len(m.records), nil
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.Attendance) error {
	record.ID = 77
	m.created = record
	return nil
}

func TestAttendanceServiceRecordRequiresTeacherRole(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{}, &mockGradeEnrollments{}, &mockGradeAssignments{}, nil, nil)

	_, err := svc.Record(context.Background(), models.Principal{Role: models.RoleAdmin}, RecordAttendanceRequest{
		StudentID: 1, CourseID: 2, Status: models.AttendancePresent,
	})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, domainErr.Code)
}

func TestAttendanceServiceRecordRequiresActiveEnrollment(t *testing.T) {
	assignments := &mockGradeAssignments{active: map[pairKey]bool{{2, 4}: true}}
	enrollments := &mockGradeEnrollments{byPair: map[pairKey]models.Enrollment{
		{1, 2}: {ID: 9, StudentID: 1, CourseID: 2, Status: models.EnrollmentStatusDropped},
	}}
	svc := NewAttendanceService(&mockAttendanceRepo{}, enrollments, assignments, nil, nil)

	_, err := svc.Record(context.Background(), teacherPrincipal(4), RecordAttendanceRequest{
		StudentID: 1, CourseID: 2, Status: models.AttendanceAbsent,
	})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, domainErr.Code)
}

func TestAttendanceServiceRecordStampsTeacher(t *testing.T) {
	assignments := &mockGradeAssignments{active: map[pairKey]bool{{2, 4}: true}}
	enrollments := &mockGradeEnrollments{byPair: map[pairKey]models.Enrollment{
		{1, 2}: {ID: 9, StudentID: 1, CourseID: 2, Status: models.EnrollmentStatusActive},
	}}
	repo := &mockAttendanceRepo{}
	svc := NewAttendanceService(repo, enrollments, assignments, nil, nil)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	record, err := svc.Record(context.Background(), teacherPrincipal(4), RecordAttendanceRequest{
		StudentID: 1, CourseID: 2, Date: &date, Status: models.AttendanceLate,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, int64(4), record.TeacherID)
	assert.Equal(t, date, record.AttendanceDate)
	assert.Equal(t, models.AttendanceLate, record.Status)
	assert.True(t, record.IsActive)
}

func TestAttendanceServiceListScopesStudent(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := NewAttendanceService(repo, &mockGradeEnrollments{}, &mockGradeAssignments{}, nil, nil)

	principal := models.Principal{UserID: 30, Role: models.RoleStudent, ProfileID: 12}
	_, _, err := svc.List(context.Background(), principal, models.AttendanceFilter{StudentID: 999})
	require.NoError(t, err)
	assert.Equal(t, int64(12), repo.lastList.StudentID)
}

func TestAttendanceServiceListScopesTeacher(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := NewAttendanceService(repo, &mockGradeEnrollments{}, &mockGradeAssignments{}, nil, nil)

	_, _, err := svc.List(context.Background(), teacherPrincipal(4), models.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), repo.lastList.TeacherID)
}
