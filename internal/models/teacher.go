package models

import "time"

// Teacher is the role profile owned by a user with the Teacher role.
type Teacher struct {
	ID             int64      `db:"id" json:"id"`
	TeacherCode    string     `db:"teacher_code" json:"teacher_code"`
	UserID         int64      `db:"user_id" json:"user_id"`
	Department     string     `db:"department" json:"department"`
	Specialization *string    `db:"specialization" json:"specialization,omitempty"`
	AcademicDegree *string    `db:"academic_degree" json:"academic_degree,omitempty"`
	HireDate       time.Time  `db:"hire_date" json:"hire_date"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// TeacherDetail enriches Teacher with account fields.
type TeacherDetail struct {
	Teacher
	Username string  `db:"username" json:"username"`
	FullName string  `db:"full_name" json:"full_name"`
	Email    string  `db:"email" json:"email"`
	Phone    *string `db:"phone" json:"phone,omitempty"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search     string
	Department string
	IsActive   *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
