package models

import "time"

// Student is the role profile owned by a user with the Student role.
// Class holds the class-room code the student belongs to; membership is
// matched by that label, not by a foreign key.
type Student struct {
	ID             int64      `db:"id" json:"id"`
	StudentCode    string     `db:"student_code" json:"student_code"`
	UserID         int64      `db:"user_id" json:"user_id"`
	Class          string     `db:"class" json:"class"`
	Major          string     `db:"major" json:"major"`
	EnrollmentDate time.Time  `db:"enrollment_date" json:"enrollment_date"`
	AdvisorID      *int64     `db:"advisor_id" json:"advisor_id,omitempty"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// StudentDetail enriches Student with account fields.
type StudentDetail struct {
	Student
	Username string  `db:"username" json:"username"`
	FullName string  `db:"full_name" json:"full_name"`
	Email    string  `db:"email" json:"email"`
	Phone    *string `db:"phone" json:"phone,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Class     string
	Classes   []string
	Major     string
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
