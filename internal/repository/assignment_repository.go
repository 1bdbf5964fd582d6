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

const assignmentDetailColumns = `ca.id, ca.course_id, ca.teacher_id, ca.assignment_date, ca.notes, ca.is_active,
        c.course_code, c.course_name, t.teacher_code, u.full_name AS teacher_name`

// AssignmentRepository manages teacher-to-course assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignment details, optionally filtered by course or teacher.
func (r *AssignmentRepository) List(ctx context.Context, courseID, teacherID int64) ([]models.CourseAssignmentDetail, error) {
	base := `FROM course_assignments ca
        JOIN courses c ON c.id = ca.course_id
        JOIN teachers t ON t.id = ca.teacher_id
        JOIN users u ON u.id = t.user_id`
	conditions := []string{"ca.is_active = true"}
	var args []interface{}

	if courseID != 0 {
		conditions = append(conditions, fmt.Sprintf("ca.course_id = $%d", len(args)+1))
		args = append(args, courseID)
	}
	if teacherID != 0 {
		conditions = append(conditions, fmt.Sprintf("ca.teacher_id = $%d", len(args)+1))
		args = append(args, teacherID)
	}

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY c.course_code, t.teacher_code",
		assignmentDetailColumns, base, strings.Join(conditions, " AND "))

	var assignments []models.CourseAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// FindByID fetches an assignment detail by ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*models.CourseAssignmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_assignments ca
        JOIN courses c ON c.id = ca.course_id
        JOIN teachers t ON t.id = ca.teacher_id
        JOIN users u ON u.id = t.user_id
        WHERE ca.id = $1`, assignmentDetailColumns)
	var detail models.CourseAssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsActive reports whether the teacher holds an active assignment
// for the course. Grading authorization hangs off this check.
func (r *AssignmentRepository) ExistsActive(ctx context.Context, courseID, teacherID int64) (bool, error) {
	const query = `SELECT 1 FROM course_assignments WHERE course_id = $1 AND teacher_id = $2 AND is_active = true LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}

// Create inserts a new assignment. The (course, teacher) pair is unique.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.CourseAssignment) error {
	if assignment.AssignmentDate.IsZero() {
		assignment.AssignmentDate = time.Now().UTC()
	}
	const query = `INSERT INTO course_assignments (course_id, teacher_id, assignment_date, notes, is_active)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		assignment.CourseID, assignment.TeacherID, assignment.AssignmentDate, assignment.Notes, assignment.IsActive,
	).Scan(&assignment.ID)
	if err != nil {
		return translateUnique(fmt.Errorf("create assignment: %w", err), "teacher already assigned to course")
	}
	return nil
}

// Deactivate revokes an assignment without losing its history.
func (r *AssignmentRepository) Deactivate(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE course_assignments SET is_active = false WHERE id = $1", id); err != nil {
		return fmt.Errorf("deactivate assignment: %w", err)
	}
	return nil
}
