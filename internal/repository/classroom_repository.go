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

const classRoomDetailColumns = `cr.id, cr.class_code, cr.class_name, cr.department, cr.academic_year,
        cr.homeroom_teacher_id, cr.is_active, cr.created_at, cr.updated_at,
        u.full_name AS homeroom_teacher_name`

// ClassRoomRepository manages persistence for class rooms and their
// course links.
type ClassRoomRepository struct {
	db *sqlx.DB
}

// NewClassRoomRepository constructs a ClassRoomRepository.
func NewClassRoomRepository(db *sqlx.DB) *ClassRoomRepository {
	return &ClassRoomRepository{db: db}
}

// List returns class rooms matching the provided filters.
func (r *ClassRoomRepository) List(ctx context.Context, filter models.ClassRoomFilter) ([]models.ClassRoomDetail, int, error) {
	base := `FROM class_rooms cr
        LEFT JOIN teachers t ON t.id = cr.homeroom_teacher_id
        LEFT JOIN users u ON u.id = t.user_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("cr.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.HomeroomTeacherID > 0 {
		conditions = append(conditions, fmt.Sprintf("cr.homeroom_teacher_id = $%d", len(args)+1))
		args = append(args, filter.HomeroomTeacherID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("cr.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("cr.is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(cr.class_code) LIKE $%d OR LOWER(cr.class_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"class_code":    "cr.class_code",
		"class_name":    "cr.class_name",
		"academic_year": "cr.academic_year",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "cr.class_code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	_, size, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", classRoomDetailColumns, base, column, order, size, offset)

	var classes []models.ClassRoomDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class rooms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count class rooms: %w", err)
	}
	return classes, total, nil
}

// FindByID fetches a class-room detail, including its attached course ids.
func (r *ClassRoomRepository) FindByID(ctx context.Context, id int64) (*models.ClassRoomDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_rooms cr
        LEFT JOIN teachers t ON t.id = cr.homeroom_teacher_id
        LEFT JOIN users u ON u.id = t.user_id
        WHERE cr.id = $1`, classRoomDetailColumns)
	var detail models.ClassRoomDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}

	courseIDs, err := r.ListCourseIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.CourseIDs = courseIDs
	return &detail, nil
}

// ListCourseIDs returns the ids of courses actively linked to the class.
func (r *ClassRoomRepository) ListCourseIDs(ctx context.Context, classRoomID int64) ([]int64, error) {
	const query = `SELECT course_id FROM class_courses WHERE class_room_id = $1 AND is_active = true ORDER BY course_id`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, classRoomID); err != nil {
		return nil, fmt.Errorf("list class courses: %w", err)
	}
	return ids, nil
}

// ExistsByCode checks if a class code is taken, optionally excluding an ID.
func (r *ClassRoomRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM class_rooms WHERE class_code = $1"
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
		return false, fmt.Errorf("check class code: %w", err)
	}
	return true, nil
}

// CreateWithCourses inserts the class room and its course links in one
// transaction.
func (r *ClassRoomRepository) CreateWithCourses(ctx context.Context, class *models.ClassRoom, courseIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create class room: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const classQuery = `INSERT INTO class_rooms (class_code, class_name, department, academic_year, homeroom_teacher_id, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := tx.QueryRowContext(ctx, classQuery,
		class.ClassCode, class.ClassName, class.Department, class.AcademicYear,
		class.HomeroomTeacherID, class.IsActive, class.CreatedAt,
	).Scan(&class.ID); err != nil {
		return translateUnique(fmt.Errorf("create class room: %w", err), "class code already exists")
	}

	const linkQuery = `INSERT INTO class_courses (class_room_id, course_id, assigned_at, is_active) VALUES ($1, $2, $3, true)`
	now := time.Now().UTC()
	for _, courseID := range courseIDs {
		if _, err := tx.ExecContext(ctx, linkQuery, class.ID, courseID, now); err != nil {
			return translateUnique(fmt.Errorf("attach course to class: %w", err), "course already attached to class")
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create class room: %w", err)
	}
	return nil
}

// UpdateWithCourses rewrites the class fields and reconciles its course
// links against the desired set in one transaction. Links outside the
// set are removed, missing links are added, links already in the set are
// left untouched.
func (r *ClassRoomRepository) UpdateWithCourses(ctx context.Context, class *models.ClassRoom, courseIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update class room: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const classQuery = `UPDATE class_rooms SET class_code = $2, class_name = $3, department = $4, academic_year = $5,
            homeroom_teacher_id = $6, updated_at = $7
        WHERE id = $1`
	if _, err := tx.ExecContext(ctx, classQuery,
		class.ID, class.ClassCode, class.ClassName, class.Department, class.AcademicYear,
		class.HomeroomTeacherID, now,
	); err != nil {
		return translateUnique(fmt.Errorf("update class room: %w", err), "class code already exists")
	}

	var current []int64
	if err := tx.SelectContext(ctx, &current, "SELECT course_id FROM class_courses WHERE class_room_id = $1 AND is_active = true", class.ID); err != nil {
		return fmt.Errorf("load class courses: %w", err)
	}

	desired := make(map[int64]bool, len(courseIDs))
	for _, id := range courseIDs {
		desired[id] = true
	}
	existing := make(map[int64]bool, len(current))
	for _, id := range current {
		existing[id] = true
	}

	for _, id := range current {
		if !desired[id] {
			if _, err := tx.ExecContext(ctx, "DELETE FROM class_courses WHERE class_room_id = $1 AND course_id = $2", class.ID, id); err != nil {
				return fmt.Errorf("detach course from class: %w", err)
			}
		}
	}
	const linkQuery = `INSERT INTO class_courses (class_room_id, course_id, assigned_at, is_active) VALUES ($1, $2, $3, true)`
	for _, id := range courseIDs {
		if !existing[id] {
			if _, err := tx.ExecContext(ctx, linkQuery, class.ID, id, now); err != nil {
				return translateUnique(fmt.Errorf("attach course to class: %w", err), "course already attached to class")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update class room: %w", err)
	}
	return nil
}

// HardDelete removes the class row permanently. Course links go with it
// through ON DELETE CASCADE.
func (r *ClassRoomRepository) HardDelete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM class_rooms WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete class room: %w", err)
	}
	return nil
}

// ListByHomeroomTeacher returns active classes where the teacher is
// homeroom teacher.
func (r *ClassRoomRepository) ListByHomeroomTeacher(ctx context.Context, teacherID int64) ([]models.ClassRoom, error) {
	const query = `SELECT id, class_code, class_name, department, academic_year, homeroom_teacher_id, is_active, created_at, updated_at
        FROM class_rooms WHERE homeroom_teacher_id = $1 AND is_active = true ORDER BY class_code`
	var classes []models.ClassRoom
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list homeroom classes: %w", err)
	}
	return classes, nil
}
