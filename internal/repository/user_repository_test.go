package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sims-platform/sims-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "password_hash", "full_name", "email", "phone", "role", "is_active", "created_at", "updated_at"})
}

func TestUserRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := userRows().
		AddRow(int64(1), "admin", "hash", "Admin One", "admin@school.test", nil, "Admin", true, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash, full_name, email, phone, role, is_active, created_at, updated_at FROM users WHERE 1=1 ORDER BY username ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListFiltersByRoleAndSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	role := models.RoleTeacher
	mock.ExpectQuery("SELECT .* FROM users WHERE 1=1 AND role = \\$1 AND \\(LOWER\\(username\\) LIKE \\$2").
		WithArgs(role, "%smith%").
		WillReturnRows(userRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND role = $1")).
		WithArgs(role, "%smith%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.UserFilter{Role: &role, Search: "Smith"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByUsername(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("jdoe").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByUsername(context.Background(), "jdoe", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE username = $1 AND id <> $2 LIMIT 1")).
		WithArgs("jdoe", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err = repo.ExistsByUsername(context.Background(), "jdoe", 7)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("jdoe", "hash", "John Doe", "jdoe@school.test", nil, models.RoleStudent, true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	user := &models.User{Username: "jdoe", PasswordHash: "hash", FullName: "John Doe", Email: "jdoe@school.test", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, int64(42), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCountActiveAdmins(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = $1 AND is_active = true")).
		WithArgs(models.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountActiveAdmins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active = false, updated_at = $2 WHERE id = $1")).
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokens(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(0, 1))

	token := &models.RefreshToken{ID: "rt-1", UserID: 5, Token: "opaque", ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now()}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at FROM refresh_tokens WHERE token = $1 LIMIT 1")).
		WithArgs("opaque").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at", "revoked", "revoked_at"}).
			AddRow("rt-1", int64(5), "opaque", time.Now().Add(time.Hour), time.Now(), false, nil))

	stored, err := repo.FindRefreshToken(context.Background(), "opaque")
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.UserID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = true, revoked_at = $2 WHERE user_id = $1 AND revoked = false")).
		WithArgs(int64(5), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.RevokeUserRefreshTokens(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}
