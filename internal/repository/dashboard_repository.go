package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sims-platform/sims-api/internal/models"
)

// DashboardRepository aggregates counts for the role dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// AdminCounts loads system-wide totals over active rows.
func (r *DashboardRepository) AdminCounts(ctx context.Context) (*models.AdminDashboard, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM users WHERE is_active = true) AS total_users,
        (SELECT COUNT(*) FROM students WHERE is_active = true) AS total_students,
        (SELECT COUNT(*) FROM teachers WHERE is_active = true) AS total_teachers,
        (SELECT COUNT(*) FROM courses WHERE is_active = true) AS total_courses,
        (SELECT COUNT(*) FROM class_rooms WHERE is_active = true) AS total_classes,
        (SELECT COUNT(*) FROM enrollments WHERE status = 'Active') AS total_enrollments,
        (SELECT COUNT(*) FROM users WHERE role = 'Admin' AND is_active = true) AS total_admins`
	var dashboard models.AdminDashboard
	if err := r.db.GetContext(ctx, &dashboard, query); err != nil {
		return nil, fmt.Errorf("admin dashboard counts: %w", err)
	}
	return &dashboard, nil
}

// TeacherCounts loads workload totals for one teacher.
func (r *DashboardRepository) TeacherCounts(ctx context.Context, teacherID int64) (*models.TeacherDashboard, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM course_assignments WHERE teacher_id = $1 AND is_active = true) AS assigned_courses,
        (SELECT COUNT(DISTINCT e.student_id) FROM enrollments e
            JOIN course_assignments ca ON ca.course_id = e.course_id
            WHERE ca.teacher_id = $1 AND ca.is_active = true AND e.status = 'Active') AS active_students,
        (SELECT COUNT(*) FROM class_rooms WHERE homeroom_teacher_id = $1 AND is_active = true) AS homeroom_classes`
	var dashboard models.TeacherDashboard
	if err := r.db.GetContext(ctx, &dashboard, query, teacherID); err != nil {
		return nil, fmt.Errorf("teacher dashboard counts: %w", err)
	}
	return &dashboard, nil
}

// StudentCounts loads one student's enrollment count and grade average.
func (r *DashboardRepository) StudentCounts(ctx context.Context, studentID int64) (*models.StudentDashboard, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND status = 'Active') AS active_enrollments,
        (SELECT COALESCE(AVG(score), 0) FROM grades WHERE student_id = $1 AND is_active = true) AS average_grade`
	var dashboard models.StudentDashboard
	if err := r.db.GetContext(ctx, &dashboard, query, studentID); err != nil {
		return nil, fmt.Errorf("student dashboard counts: %w", err)
	}
	return &dashboard, nil
}
