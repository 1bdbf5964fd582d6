package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sims-platform/sims-api/internal/models"
)

const studentDetailColumns = `s.id, s.student_code, s.user_id, s.class, s.major, s.enrollment_date,
        s.advisor_id, s.is_active, s.created_at, s.updated_at,
        u.username, u.full_name, u.email, u.phone`

// StudentRepository manages persistence for student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns student details matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s JOIN users u ON u.id = s.user_id"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Class != "" {
		conditions = append(conditions, fmt.Sprintf("s.class = $%d", len(args)+1))
		args = append(args, filter.Class)
	}
	if len(filter.Classes) > 0 {
		conditions = append(conditions, fmt.Sprintf("s.class = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.Classes))
	}
	if filter.Major != "" {
		conditions = append(conditions, fmt.Sprintf("s.major = $%d", len(args)+1))
		args = append(args, filter.Major)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("s.is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.student_code) LIKE $%d OR LOWER(u.full_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"student_code":    "s.student_code",
		"full_name":       "u.full_name",
		"class":           "s.class",
		"enrollment_date": "s.enrollment_date",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.student_code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	_, size, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentDetailColumns, base, column, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM students s JOIN users u ON u.id = s.user_id WHERE s.id = $1", studentDetailColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByUserID resolves the student profile owned by a user, if any.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	const query = `SELECT id, student_code, user_id, class, major, enrollment_date, advisor_id, is_active, created_at, updated_at
        FROM students WHERE user_id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByCode checks if a student code is taken, optionally excluding an ID.
func (r *StudentRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM students WHERE student_code = $1"
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
		return false, fmt.Errorf("check student code: %w", err)
	}
	return true, nil
}

// CreateWithUser inserts the account and the student profile in one
// transaction so a failed profile insert never leaves an orphan account.
func (r *StudentRepository) CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const userQuery = `INSERT INTO users (username, password_hash, full_name, email, phone, role, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := tx.QueryRowContext(ctx, userQuery,
		user.Username, user.PasswordHash, user.FullName, user.Email, user.Phone, models.RoleStudent, user.IsActive, user.CreatedAt,
	).Scan(&user.ID); err != nil {
		return translateUnique(fmt.Errorf("create student account: %w", err), "username or email already exists")
	}

	student.UserID = user.ID
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const studentQuery = `INSERT INTO students (student_code, user_id, class, major, enrollment_date, advisor_id, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := tx.QueryRowContext(ctx, studentQuery,
		student.StudentCode, student.UserID, student.Class, student.Major, student.EnrollmentDate,
		student.AdvisorID, student.IsActive, student.CreatedAt,
	).Scan(&student.ID); err != nil {
		return translateUnique(fmt.Errorf("create student profile: %w", err), "student code already exists")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	return nil
}

// UpdateWithUser updates the profile and its owning account together.
func (r *StudentRepository) UpdateWithUser(ctx context.Context, user *models.User, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const userQuery = `UPDATE users SET username = $2, password_hash = $3, full_name = $4, email = $5, phone = $6, updated_at = $7 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, userQuery,
		user.ID, user.Username, user.PasswordHash, user.FullName, user.Email, user.Phone, now,
	); err != nil {
		return translateUnique(fmt.Errorf("update student account: %w", err), "username or email already exists")
	}

	const studentQuery = `UPDATE students SET student_code = $2, class = $3, major = $4, enrollment_date = $5, advisor_id = $6, updated_at = $7 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, studentQuery,
		student.ID, student.StudentCode, student.Class, student.Major, student.EnrollmentDate, student.AdvisorID, now,
	); err != nil {
		return translateUnique(fmt.Errorf("update student profile: %w", err), "student code already exists")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	return nil
}

// HasBlockingEnrollments reports whether the student holds any
// enrollment with status Active or Dropped. Such rows block hard
// deletion; a record of only Completed courses does not.
func (r *StudentRepository) HasBlockingEnrollments(ctx context.Context, studentID int64) (bool, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND status IN ('Active', 'Dropped')`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID); err != nil {
		return false, fmt.Errorf("check blocking enrollments: %w", err)
	}
	return count > 0, nil
}

// HardDelete removes the student row permanently. Dependent rows go
// with it through ON DELETE CASCADE.
func (r *StudentRepository) HardDelete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// Deactivate marks a student profile as inactive.
func (r *StudentRepository) Deactivate(ctx context.Context, id int64) error {
	const query = `UPDATE students SET is_active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}

// FindClassMembers returns active students whose class label matches the
// given class code. Membership is label based, there is no foreign key.
func (r *StudentRepository) FindClassMembers(ctx context.Context, classCode string) ([]models.Student, error) {
	const query = `SELECT id, student_code, user_id, class, major, enrollment_date, advisor_id, is_active, created_at, updated_at
        FROM students WHERE class = $1 AND is_active = true ORDER BY student_code`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classCode); err != nil {
		return nil, fmt.Errorf("find class members: %w", err)
	}
	return students, nil
}

// CountActiveByClass counts active students carrying the class label.
func (r *StudentRepository) CountActiveByClass(ctx context.Context, classCode string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM students WHERE class = $1 AND is_active = true", classCode); err != nil {
		return 0, fmt.Errorf("count class students: %w", err)
	}
	return count, nil
}
