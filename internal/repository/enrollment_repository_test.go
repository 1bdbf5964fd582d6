package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sims-platform/sims-api/internal/models"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
)

func TestEnrollmentRepositoryFindByStudentAndCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "enrollment_date", "status", "notes", "is_active"}).
		AddRow(int64(5), int64(1), int64(2), time.Now(), "Completed", nil, true)
	mock.ExpectQuery("FROM enrollments WHERE student_id = \\$1 AND course_id = \\$2 LIMIT 1").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(rows)

	enrollment, err := repo.FindByStudentAndCourse(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByStudentAndCourseMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("FROM enrollments WHERE student_id = \\$1 AND course_id = \\$2 LIMIT 1").
		WithArgs(int64(1), int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByStudentAndCourse(context.Background(), 1, 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("INSERT INTO enrollments").
		WithArgs(int64(1), int64(2), sqlmock.AnyArg(), models.EnrollmentStatusActive, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(77)))

	enrollment := &models.Enrollment{StudentID: 1, CourseID: 2, Status: models.EnrollmentStatusActive, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.Equal(t, int64(77), enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateTranslatesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("INSERT INTO enrollments").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Enrollment{StudentID: 1, CourseID: 2, Status: models.EnrollmentStatusActive})
	require.Error(t, err)
	var domainErr *appErrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, appErrors.ErrDuplicateKey.Code, domainErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2 WHERE id = $1")).
		WithArgs(int64(5), models.EnrollmentStatusDropped).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), 5, models.EnrollmentStatusDropped))
	assert.NoError(t, mock.ExpectationsWereMet())
}
