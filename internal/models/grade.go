package models

import "time"

// GradeType categorises a grade entry.
type GradeType string

// Possible grade types.
const (
	GradeTypeAssignment    GradeType = "Assignment"
	GradeTypeMidterm       GradeType = "Midterm"
	GradeTypeFinal         GradeType = "Final"
	GradeTypeParticipation GradeType = "Participation"
)

// Grade ties a score to a student, course, grading teacher and the
// enrollment it belongs to. Grades are append-only; no update or delete
// operation is exposed.
type Grade struct {
	ID           int64     `db:"id" json:"id"`
	StudentID    int64     `db:"student_id" json:"student_id"`
	CourseID     int64     `db:"course_id" json:"course_id"`
	TeacherID    int64     `db:"teacher_id" json:"teacher_id"`
	EnrollmentID int64     `db:"enrollment_id" json:"enrollment_id"`
	GradeType    GradeType `db:"grade_type" json:"grade_type"`
	Score        float64   `db:"score" json:"score"`
	Weight       float64   `db:"weight" json:"weight"`
	Comments     *string   `db:"comments" json:"comments,omitempty"`
	GradingDate  time.Time `db:"grading_date" json:"grading_date"`
	IsActive     bool      `db:"is_active" json:"is_active"`
}

// GradeDetail enriches Grade with descriptive fields for listings.
type GradeDetail struct {
	Grade
	StudentCode string `db:"student_code" json:"student_code"`
	StudentName string `db:"student_name" json:"student_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseName  string `db:"course_name" json:"course_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// GradeFilter provides filters for listing grades.
type GradeFilter struct {
	StudentID int64
	CourseID  int64
	TeacherID int64
	GradeType GradeType
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
