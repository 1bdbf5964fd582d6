package models

import "time"

// AttendanceStatus categorises a daily attendance record.
type AttendanceStatus string

// Possible attendance statuses.
const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceExcused AttendanceStatus = "Excused"
)

// Attendance records one student's presence in one course on one date.
// (StudentID, CourseID, AttendanceDate) is unique.
type Attendance struct {
	ID             int64            `db:"id" json:"id"`
	StudentID      int64            `db:"student_id" json:"student_id"`
	CourseID       int64            `db:"course_id" json:"course_id"`
	TeacherID      int64            `db:"teacher_id" json:"teacher_id"`
	AttendanceDate time.Time        `db:"attendance_date" json:"attendance_date"`
	Status         AttendanceStatus `db:"status" json:"status"`
	Note           *string          `db:"note" json:"note,omitempty"`
	IsActive       bool             `db:"is_active" json:"is_active"`
}

// AttendanceDetail enriches Attendance with descriptive fields.
type AttendanceDetail struct {
	Attendance
	StudentCode string `db:"student_code" json:"student_code"`
	StudentName string `db:"student_name" json:"student_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
}

// AttendanceFilter provides filters for listing attendance records.
type AttendanceFilter struct {
	StudentID int64
	CourseID  int64
	TeacherID int64
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
