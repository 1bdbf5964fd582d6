package models

import "time"

// CourseAssignment links a teacher to a course they are authorized to
// teach and grade. (CourseID, TeacherID) is unique.
type CourseAssignment struct {
	ID             int64     `db:"id" json:"id"`
	CourseID       int64     `db:"course_id" json:"course_id"`
	TeacherID      int64     `db:"teacher_id" json:"teacher_id"`
	AssignmentDate time.Time `db:"assignment_date" json:"assignment_date"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	IsActive       bool      `db:"is_active" json:"is_active"`
}

// CourseAssignmentDetail enriches assignments with descriptive fields.
type CourseAssignmentDetail struct {
	CourseAssignment
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseName  string `db:"course_name" json:"course_name"`
	TeacherCode string `db:"teacher_code" json:"teacher_code"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
