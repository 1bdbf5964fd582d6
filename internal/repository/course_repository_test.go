package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "course_code", "course_name", "credits", "duration", "description", "department", "semester", "academic_year", "max_students", "fee", "is_active", "created_at", "updated_at"})
}

func TestCourseRepositoryHasEnrollments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE course_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	has, err := repo.HasEnrollments(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, has)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE course_id = $1")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	has, err = repo.HasEnrollments(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, has)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := courseRows().
		AddRow(int64(1), "MATH101", "Algebra", 3, "1 semester", nil, "Mathematics", "1", "2026/2027", 40, 0.0, true, time.Now(), nil)
	mock.ExpectQuery("JOIN course_assignments ca ON ca.course_id = c.id").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	courses, err := repo.ListByTeacher(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "MATH101", courses[0].CourseCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryHardDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.HardDelete(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}
