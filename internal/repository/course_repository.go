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

const courseColumns = `id, course_code, course_name, credits, duration, description, department,
        semester, academic_year, max_students, fee, is_active, created_at, updated_at`

// CourseRepository manages persistence for catalog courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the provided filters.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.TeacherID > 0 {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM course_assignments ca WHERE ca.course_id = courses.id AND ca.teacher_id = $%d AND ca.is_active = true)", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.StudentID > 0 {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM enrollments e WHERE e.course_id = courses.id AND e.student_id = $%d AND e.status = 'Active' AND e.is_active = true)", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(course_code) LIKE $%d OR LOWER(course_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	where := strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"course_code": "course_code",
		"course_name": "course_name",
		"credits":     "credits",
		"created_at":  "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "course_code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	_, size, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM courses WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d", courseColumns, where, column, order, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM courses WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByCode checks if a course code is taken, optionally excluding an ID.
func (r *CourseRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM courses WHERE course_code = $1"
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
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (course_code, course_name, credits, duration, description, department,
            semester, academic_year, max_students, fee, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		course.CourseCode, course.CourseName, course.Credits, course.Duration, course.Description,
		course.Department, course.Semester, course.AcademicYear, course.MaxStudents, course.Fee,
		course.IsActive, course.CreatedAt,
	).Scan(&course.ID)
	if err != nil {
		return translateUnique(fmt.Errorf("create course: %w", err), "course code already exists")
	}
	return nil
}

// Update rewrites the mutable fields of a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	const query = `UPDATE courses SET course_code = $2, course_name = $3, credits = $4, duration = $5,
            description = $6, department = $7, semester = $8, academic_year = $9,
            max_students = $10, fee = $11, updated_at = $12
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		course.ID, course.CourseCode, course.CourseName, course.Credits, course.Duration,
		course.Description, course.Department, course.Semester, course.AcademicYear,
		course.MaxStudents, course.Fee, time.Now().UTC(),
	); err != nil {
		return translateUnique(fmt.Errorf("update course: %w", err), "course code already exists")
	}
	return nil
}

// HasEnrollments reports whether any enrollment row, in any status,
// references the course. Any such row blocks hard deletion.
func (r *CourseRepository) HasEnrollments(ctx context.Context, courseID int64) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM enrollments WHERE course_id = $1", courseID); err != nil {
		return false, fmt.Errorf("check course enrollments: %w", err)
	}
	return count > 0, nil
}

// HardDelete removes the course row permanently. Class links and
// assignments go with it through ON DELETE CASCADE.
func (r *CourseRepository) HardDelete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// ListByTeacher returns courses the teacher is actively assigned to.
func (r *CourseRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        JOIN course_assignments ca ON ca.course_id = c.id
        WHERE ca.teacher_id = $1 AND ca.is_active = true AND c.is_active = true
        ORDER BY c.course_code`, prefixColumns(courseColumns, "c"))
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher courses: %w", err)
	}
	return courses, nil
}

// ListByStudent returns courses the student is actively enrolled in.
func (r *CourseRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        JOIN enrollments e ON e.course_id = c.id
        WHERE e.student_id = $1 AND e.status = 'Active'
        ORDER BY c.course_code`, prefixColumns(courseColumns, "c"))
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return courses, nil
}
