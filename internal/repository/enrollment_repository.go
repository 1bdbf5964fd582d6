package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sims-platform/sims-api/internal/models"
)

const enrollmentDetailColumns = `e.id, e.student_id, e.course_id, e.enrollment_date, e.status, e.notes, e.is_active,
        s.student_code, u.full_name AS student_name, c.course_code, c.course_name`

// EnrollmentRepository manages student-course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollment details matching the provided filters.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN users u ON u.id = s.user_id
        JOIN courses c ON c.id = e.course_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != 0 {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("e.is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"enrollment_date": "e.enrollment_date",
		"student_code":    "s.student_code",
		"course_code":     "c.course_code",
		"status":          "e.status",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "e.enrollment_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	_, size, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", enrollmentDetailColumns, base, column, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID fetches an enrollment detail by ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.EnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN users u ON u.id = s.user_id
        JOIN courses c ON c.id = e.course_id
        WHERE e.id = $1`, enrollmentDetailColumns)
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByStudentAndCourse returns the enrollment for a pair regardless
// of status. At most one row exists; the pair is unique.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, enrollment_date, status, notes, is_active
        FROM enrollments WHERE student_id = $1 AND course_id = $2 LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create inserts a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (student_id, course_id, enrollment_date, status, notes, is_active)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		enrollment.StudentID, enrollment.CourseID, enrollment.EnrollmentDate,
		enrollment.Status, enrollment.Notes, enrollment.IsActive,
	).Scan(&enrollment.ID)
	if err != nil {
		return translateUnique(fmt.Errorf("create enrollment: %w", err), "student already enrolled in course")
	}
	return nil
}

// UpdateStatus moves an enrollment to a new status.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE enrollments SET status = $2 WHERE id = $1", id, status); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// UpdateNotes rewrites the free-form notes on an enrollment.
func (r *EnrollmentRepository) UpdateNotes(ctx context.Context, id int64, notes *string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE enrollments SET notes = $2 WHERE id = $1", id, notes); err != nil {
		return fmt.Errorf("update enrollment notes: %w", err)
	}
	return nil
}

// Deactivate hides an enrollment from listings without deleting it.
func (r *EnrollmentRepository) Deactivate(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE enrollments SET is_active = false WHERE id = $1", id); err != nil {
		return fmt.Errorf("deactivate enrollment: %w", err)
	}
	return nil
}

// CountActiveByStudent counts the student's enrollments in Active status.
func (r *EnrollmentRepository) CountActiveByStudent(ctx context.Context, studentID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND status = 'Active'", studentID); err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return count, nil
}

// ListByStudent returns all of a student's enrollment details, used to
// assemble transcripts.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN users u ON u.id = s.user_id
        JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1
        ORDER BY c.course_code`, enrollmentDetailColumns)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}
