package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sims-platform/sims-api/internal/models"
)

const teacherDetailColumns = `t.id, t.teacher_code, t.user_id, t.department, t.specialization, t.academic_degree,
        t.hire_date, t.is_active, t.created_at, t.updated_at,
        u.username, u.full_name, u.email, u.phone`

// TeacherRepository manages persistence for teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teacher details matching the provided filters.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error) {
	base := "FROM teachers t JOIN users u ON u.id = t.user_id"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("t.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("t.is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(t.teacher_code) LIKE $%d OR LOWER(u.full_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"teacher_code": "t.teacher_code",
		"full_name":    "u.full_name",
		"hire_date":    "t.hire_date",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "t.teacher_code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	_, size, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", teacherDetailColumns, base, column, order, size, offset)

	var teachers []models.TeacherDetail
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches a teacher detail by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.TeacherDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.id = $1", teacherDetailColumns)
	var detail models.TeacherDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByUserID resolves the teacher profile owned by a user, if any.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID int64) (*models.Teacher, error) {
	const query = `SELECT id, teacher_code, user_id, department, specialization, academic_degree, hire_date, is_active, created_at, updated_at
        FROM teachers WHERE user_id = $1 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsByCode checks if a teacher code is taken, optionally excluding an ID.
func (r *TeacherRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM teachers WHERE teacher_code = $1"
	args := []interface{}{code}
	if excludeID != 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher code: %w", err)
	}
	return true, nil
}

// CreateWithUser inserts the account and the teacher profile in one
// transaction so a failed profile insert never leaves an orphan account.
func (r *TeacherRepository) CreateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const userQuery = `INSERT INTO users (username, password_hash, full_name, email, phone, role, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := tx.QueryRowContext(ctx, userQuery,
		user.Username, user.PasswordHash, user.FullName, user.Email, user.Phone, models.RoleTeacher, user.IsActive, user.CreatedAt,
	).Scan(&user.ID); err != nil {
		return translateUnique(fmt.Errorf("create teacher account: %w", err), "username or email already exists")
	}

	teacher.UserID = user.ID
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	const teacherQuery = `INSERT INTO teachers (teacher_code, user_id, department, specialization, academic_degree, hire_date, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := tx.QueryRowContext(ctx, teacherQuery,
		teacher.TeacherCode, teacher.UserID, teacher.Department, teacher.Specialization, teacher.AcademicDegree,
		teacher.HireDate, teacher.IsActive, teacher.CreatedAt,
	).Scan(&teacher.ID); err != nil {
		return translateUnique(fmt.Errorf("create teacher profile: %w", err), "teacher code already exists")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create teacher: %w", err)
	}
	return nil
}

// UpdateWithUser updates the profile and its owning account together.
func (r *TeacherRepository) UpdateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update teacher: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const userQuery = `UPDATE users SET username = $2, password_hash = $3, full_name = $4, email = $5, phone = $6, updated_at = $7 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, userQuery,
		user.ID, user.Username, user.PasswordHash, user.FullName, user.Email, user.Phone, now,
	); err != nil {
		return translateUnique(fmt.Errorf("update teacher account: %w", err), "username or email already exists")
	}

	const teacherQuery = `UPDATE teachers SET teacher_code = $2, department = $3, specialization = $4, academic_degree = $5, hire_date = $6, updated_at = $7 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, teacherQuery,
		teacher.ID, teacher.TeacherCode, teacher.Department, teacher.Specialization, teacher.AcademicDegree, teacher.HireDate, now,
	); err != nil {
		return translateUnique(fmt.Errorf("update teacher profile: %w", err), "teacher code already exists")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update teacher: %w", err)
	}
	return nil
}

// Deactivate marks a teacher profile as inactive.
func (r *TeacherRepository) Deactivate(ctx context.Context, id int64) error {
	const query = `UPDATE teachers SET is_active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate teacher: %w", err)
	}
	return nil
}
