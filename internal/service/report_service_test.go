package service

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sims-platform/sims-api/internal/models"
)

type mockReportStudents struct {
	byID map[int64]models.StudentDetail
}

func (m *mockReportStudents) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	if s, ok := m.byID[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockReportEnrollments struct {
	byStudent map[int64][]models.EnrollmentDetail
}

func (m *mockReportEnrollments) ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	return m.byStudent[studentID], nil
}

type mockReportGrades struct {
	byStudent map[int64][]models.GradeDetail
}

func (m *mockReportGrades) ListByStudent(ctx context.Context, studentID int64) ([]models.GradeDetail, error) {
	return m.byStudent[studentID], nil
}

type mockReportCourses struct {
	byID map[int64]models.Course
}

func (m *mockReportCourses) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := m.byID[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func newReportFixture() *ReportService {
	students := &mockReportStudents{byID: map[int64]models.StudentDetail{
		1: {Student: models.Student{ID: 1, StudentCode: "S001", Class: "10A", Major: "Science"}, FullName: "Alice Example"},
	}}
	enrollments := &mockReportEnrollments{byStudent: map[int64][]models.EnrollmentDetail{
		1: {
			{Enrollment: models.Enrollment{ID: 10, StudentID: 1, CourseID: 2, Status: models.EnrollmentStatusActive}, CourseCode: "MATH101", CourseName: "Algebra"},
			{Enrollment: models.Enrollment{ID: 11, StudentID: 1, CourseID: 3, Status: models.EnrollmentStatusCompleted}, CourseCode: "PHY101", CourseName: "Mechanics"},
		},
	}}
	grades := &mockReportGrades{byStudent: map[int64][]models.GradeDetail{
		1: {
			{Grade: models.Grade{CourseID: 2, Score: 80}},
			{Grade: models.Grade{CourseID: 2, Score: 90}},
			{Grade: models.Grade{CourseID: 3, Score: 70}},
		},
	}}
	courses := &mockReportCourses{byID: map[int64]models.Course{
		2: {ID: 2, Credits: 3},
		3: {ID: 3, Credits: 4},
	}}
	return NewReportService(students, enrollments, grades, courses, nil)
}

func TestReportServiceTranscriptAverages(t *testing.T) {
	svc := newReportFixture()

	transcript, err := svc.Transcript(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, transcript.Courses, 2)

	assert.Equal(t, "MATH101", transcript.Courses[0].CourseCode)
	assert.InDelta(t, 85.0, transcript.Courses[0].Average, 0.0001)
	assert.Equal(t, 3, transcript.Courses[0].Credits)
	assert.InDelta(t, 70.0, transcript.Courses[1].Average, 0.0001)
	assert.InDelta(t, 80.0, transcript.Average, 0.0001)
}

func TestReportServiceTranscriptUnknownStudent(t *testing.T) {
	svc := newReportFixture()

	_, err := svc.Transcript(context.Background(), 99)
	require.Error(t, err)
}

func TestReportServiceTranscriptCSV(t *testing.T) {
	svc := newReportFixture()

	payload, filename, err := svc.TranscriptCSV(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "transcript-S001.csv", filename)

	content := string(payload)
	assert.True(t, strings.HasPrefix(content, "Course,Name,Credits,Status,Average"))
	assert.Contains(t, content, "MATH101,Algebra,3,Active,85.00")
	assert.Contains(t, content, "PHY101,Mechanics,4,Completed,70.00")
}

func TestReportServiceTranscriptPDF(t *testing.T) {
	svc := newReportFixture()

	payload, filename, err := svc.TranscriptPDF(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "transcript-S001.pdf", filename)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}
