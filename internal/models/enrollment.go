package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "Active"
	EnrollmentStatusCompleted EnrollmentStatus = "Completed"
	EnrollmentStatusDropped   EnrollmentStatus = "Dropped"
)

// Valid reports whether the status is one of the known values.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusDropped:
		return true
	}
	return false
}

// CanTransition reports whether a status change is allowed. Every
// transition between valid states is currently permitted; operators move
// enrollments between Active, Completed and Dropped freely.
func (s EnrollmentStatus) CanTransition(to EnrollmentStatus) bool {
	return s.Valid() && to.Valid()
}

// Enrollment is the registration of one student in one course.
// (StudentID, CourseID) is unique.
type Enrollment struct {
	ID             int64            `db:"id" json:"id"`
	StudentID      int64            `db:"student_id" json:"student_id"`
	CourseID       int64            `db:"course_id" json:"course_id"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	Notes          *string          `db:"notes" json:"notes,omitempty"`
	IsActive       bool             `db:"is_active" json:"is_active"`
}

// EnrollmentDetail enriches Enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentCode string `db:"student_code" json:"student_code"`
	StudentName string `db:"student_name" json:"student_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseName  string `db:"course_name" json:"course_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID int64
	CourseID  int64
	Status    EnrollmentStatus
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
