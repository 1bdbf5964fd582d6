package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sims-platform/sims-api/internal/models"
)

const gradeDetailColumns = `g.id, g.student_id, g.course_id, g.teacher_id, g.enrollment_id, g.grade_type,
        g.score, g.weight, g.comments, g.grading_date, g.is_active,
        s.student_code, su.full_name AS student_name, c.course_code, c.course_name, tu.full_name AS teacher_name`

const gradeDetailJoins = `FROM grades g
        JOIN students s ON s.id = g.student_id
        JOIN users su ON su.id = s.user_id
        JOIN courses c ON c.id = g.course_id
        JOIN teachers t ON t.id = g.teacher_id
        JOIN users tu ON tu.id = t.user_id`

// GradeRepository manages grade records. Grades are append-only.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grade details matching the provided filters.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error) {
	conditions := []string{"g.is_active = true"}
	var args []interface{}

	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("g.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != 0 {
		conditions = append(conditions, fmt.Sprintf("g.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TeacherID != 0 {
		conditions = append(conditions, fmt.Sprintf("g.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.GradeType != "" {
		conditions = append(conditions, fmt.Sprintf("g.grade_type = $%d", len(args)+1))
		args = append(args, filter.GradeType)
	}

	base := fmt.Sprintf("%s WHERE %s", gradeDetailJoins, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"grading_date": "g.grading_date",
		"score":        "g.score",
		"student_code": "s.student_code",
		"course_code":  "c.course_code",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "g.grading_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	_, size, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", gradeDetailColumns, base, column, order, size, offset)

	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return grades, total, nil
}

// Create inserts a new grade record.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.GradingDate.IsZero() {
		grade.GradingDate = time.Now().UTC()
	}
	const query = `INSERT INTO grades (student_id, course_id, teacher_id, enrollment_id, grade_type, score, weight, comments, grading_date, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		grade.StudentID, grade.CourseID, grade.TeacherID, grade.EnrollmentID,
		grade.GradeType, grade.Score, grade.Weight, grade.Comments, grade.GradingDate, grade.IsActive,
	).Scan(&grade.ID)
	if err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// AverageScore returns the unweighted mean of a student's active grade
// scores, zero when no grades exist.
func (r *GradeRepository) AverageScore(ctx context.Context, studentID int64) (float64, error) {
	const query = `SELECT COALESCE(AVG(score), 0) FROM grades WHERE student_id = $1 AND is_active = true`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, studentID); err != nil {
		return 0, fmt.Errorf("average score: %w", err)
	}
	return avg, nil
}

// ListByStudent returns all active grades for a student, used to
// assemble transcripts.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.GradeDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s
        WHERE g.student_id = $1 AND g.is_active = true
        ORDER BY c.course_code, g.grading_date`, gradeDetailColumns, gradeDetailJoins)
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}
