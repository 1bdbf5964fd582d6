package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sims-platform/sims-api/internal/models"
)

func TestGradeRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery("INSERT INTO grades").
		WithArgs(int64(1), int64(2), int64(3), int64(4), models.GradeTypeMidterm, 87.5, 0.3, nil, sqlmock.AnyArg(), true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(15)))

	grade := &models.Grade{StudentID: 1, CourseID: 2, TeacherID: 3, EnrollmentID: 4, GradeType: models.GradeTypeMidterm, Score: 87.5, Weight: 0.3, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), grade))
	assert.Equal(t, int64(15), grade.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryAverageScore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(AVG(score), 0) FROM grades WHERE student_id = $1 AND is_active = true")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(82.25))

	avg, err := repo.AverageScore(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 82.25, avg, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryAverageScoreNoGrades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(AVG(score), 0) FROM grades WHERE student_id = $1 AND is_active = true")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0.0))

	avg, err := repo.AverageScore(context.Background(), 2)
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.NoError(t, mock.ExpectationsWereMet())
}
