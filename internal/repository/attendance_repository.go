package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sims-platform/sims-api/internal/models"
)

const attendanceDetailColumns = `a.id, a.student_id, a.course_id, a.teacher_id, a.attendance_date, a.status, a.note, a.is_active,
        s.student_code, u.full_name AS student_name, c.course_code`

// AttendanceRepository manages daily attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance details matching the provided filters.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	base := `FROM attendances a
        JOIN students s ON s.id = a.student_id
        JOIN users u ON u.id = s.user_id
        JOIN courses c ON c.id = a.course_id`
	conditions := []string{"a.is_active = true"}
	var args []interface{}

	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != 0 {
		conditions = append(conditions, fmt.Sprintf("a.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TeacherID != 0 {
		conditions = append(conditions, fmt.Sprintf("a.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("a.attendance_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("a.attendance_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))
	_, size, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY a.attendance_date DESC, s.student_code LIMIT %d OFFSET %d",
		attendanceDetailColumns, base, size, offset)

	var records []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return records, total, nil
}

// Create inserts a new attendance record. One row per student, course
// and date; the triple is unique.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.Attendance) error {
	if record.AttendanceDate.IsZero() {
		record.AttendanceDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	const query = `INSERT INTO attendances (student_id, course_id, teacher_id, attendance_date, status, note, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		record.StudentID, record.CourseID, record.TeacherID, record.AttendanceDate,
		record.Status, record.Note, record.IsActive,
	).Scan(&record.ID)
	if err != nil {
		return translateUnique(fmt.Errorf("create attendance: %w", err), "attendance already recorded for this date")
	}
	return nil
}
