package models

// AdminDashboard summarises active rows across the whole store.
type AdminDashboard struct {
	TotalUsers       int `db:"total_users" json:"total_users"`
	TotalStudents    int `db:"total_students" json:"total_students"`
	TotalTeachers    int `db:"total_teachers" json:"total_teachers"`
	TotalCourses     int `db:"total_courses" json:"total_courses"`
	TotalClasses     int `db:"total_classes" json:"total_classes"`
	TotalEnrollments int `db:"total_enrollments" json:"total_enrollments"`
	TotalAdmins      int `db:"total_admins" json:"total_admins"`
}

// TeacherDashboard summarises a teacher's assigned workload.
type TeacherDashboard struct {
	AssignedCourses int `db:"assigned_courses" json:"assigned_courses"`
	ActiveStudents  int `db:"active_students" json:"active_students"`
	HomeroomClasses int `db:"homeroom_classes" json:"homeroom_classes"`
}

// StudentDashboard summarises a student's own academic state. The
// average is the unweighted mean of active grade scores.
type StudentDashboard struct {
	ActiveEnrollments int     `db:"active_enrollments" json:"active_enrollments"`
	AverageGrade      float64 `db:"average_grade" json:"average_grade"`
}

// TranscriptCourse groups one enrollment with its grades for transcripts.
type TranscriptCourse struct {
	CourseCode string           `json:"course_code"`
	CourseName string           `json:"course_name"`
	Credits    int              `json:"credits"`
	Status     EnrollmentStatus `json:"status"`
	Grades     []GradeDetail    `json:"grades"`
	Average    float64          `json:"average"`
}

// Transcript is a student's full academic record.
type Transcript struct {
	Student StudentDetail      `json:"student"`
	Courses []TranscriptCourse `json:"courses"`
	Average float64            `json:"average"`
}
