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

func TestStudentRepositoryHasBlockingEnrollments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND status IN ('Active', 'Dropped')")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	blocked, err := repo.HasBlockingEnrollments(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, blocked)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND status IN ('Active', 'Dropped')")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	blocked, err = repo.HasBlockingEnrollments(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindClassMembers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_code", "user_id", "class", "major", "enrollment_date", "advisor_id", "is_active", "created_at", "updated_at"}).
		AddRow(int64(1), "S001", int64(11), "10A", "Science", time.Now(), nil, true, time.Now(), nil).
		AddRow(int64(2), "S002", int64(12), "10A", "Science", time.Now(), nil, true, time.Now(), nil)
	mock.ExpectQuery("FROM students WHERE class = \\$1 AND is_active = true ORDER BY student_code").
		WithArgs("10A").
		WillReturnRows(rows)

	members, err := repo.FindClassMembers(context.Background(), "10A")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "S001", members[0].StudentCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryHardDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.HardDelete(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCountActiveByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE class = $1 AND is_active = true")).
		WithArgs("11B").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(24))

	count, err := repo.CountActiveByClass(context.Background(), "11B")
	require.NoError(t, err)
	assert.Equal(t, 24, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
