package models

import "time"

// Course represents a catalog course.
type Course struct {
	ID           int64      `db:"id" json:"id"`
	CourseCode   string     `db:"course_code" json:"course_code"`
	CourseName   string     `db:"course_name" json:"course_name"`
	Credits      int        `db:"credits" json:"credits"`
	Duration     string     `db:"duration" json:"duration"`
	Description  *string    `db:"description" json:"description,omitempty"`
	Department   string     `db:"department" json:"department"`
	Semester     string     `db:"semester" json:"semester"`
	AcademicYear string     `db:"academic_year" json:"academic_year"`
	MaxStudents  int        `db:"max_students" json:"max_students"`
	Fee          float64    `db:"fee" json:"fee"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	Search     string
	Department string
	TeacherID  int64
	StudentID  int64
	Semester   string
	IsActive   *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
