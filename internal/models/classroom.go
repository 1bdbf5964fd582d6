package models

import "time"

// ClassRoom represents an academic class grouping of students. Students
// associate to it through their Class label matching ClassCode.
type ClassRoom struct {
	ID                int64      `db:"id" json:"id"`
	ClassCode         string     `db:"class_code" json:"class_code"`
	ClassName         string     `db:"class_name" json:"class_name"`
	Department        string     `db:"department" json:"department"`
	AcademicYear      string     `db:"academic_year" json:"academic_year"`
	HomeroomTeacherID *int64     `db:"homeroom_teacher_id" json:"homeroom_teacher_id,omitempty"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// ClassRoomDetail extends ClassRoom with homeroom teacher info and the
// attached course ids.
type ClassRoomDetail struct {
	ClassRoom
	HomeroomTeacherName *string `db:"homeroom_teacher_name" json:"homeroom_teacher_name,omitempty"`
	CourseIDs           []int64 `json:"course_ids"`
}

// ClassRoomFilter defines filter criteria for listing class rooms.
type ClassRoomFilter struct {
	Search            string
	Department        string
	HomeroomTeacherID int64
	AcademicYear      string
	IsActive          *bool
	Page              int
	PageSize          int
	SortBy            string
	SortOrder         string
}

// ClassCourse links a class room to a course.
type ClassCourse struct {
	ID          int64     `db:"id" json:"id"`
	ClassRoomID int64     `db:"class_room_id" json:"class_room_id"`
	CourseID    int64     `db:"course_id" json:"course_id"`
	AssignedAt  time.Time `db:"assigned_at" json:"assigned_at"`
	IsActive    bool      `db:"is_active" json:"is_active"`
}
