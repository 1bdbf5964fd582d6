package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sims-platform/sims-api/internal/models"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
	"github.com/sims-platform/sims-api/pkg/export"
)

type reportStudentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
}

type reportEnrollmentRepository interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error)
}

type reportGradeRepository interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.GradeDetail, error)
}

type reportCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

// ReportService assembles transcripts and renders them for download.
type ReportService struct {
	students    reportStudentRepository
	enrollments reportEnrollmentRepository
	grades      reportGradeRepository
	courses     reportCourseRepository
	pdf         *export.PDFExporter
	csv         *export.CSVExporter
	logger      *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(students reportStudentRepository, enrollments reportEnrollmentRepository, grades reportGradeRepository, courses reportCourseRepository, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		students:    students,
		enrollments: enrollments,
		grades:      grades,
		courses:     courses,
		pdf:         export.NewPDFExporter(),
		csv:         export.NewCSVExporter(),
		logger:      logger,
	}
}

// Transcript assembles a student's full academic record: every
// enrollment regardless of status with the grades attached to it.
// Students may fetch only their own; the handler enforces that before
// calling in with the resolved student id.
func (s *ReportService) Transcript(ctx context.Context, studentID int64) (*models.Transcript, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	byCourse := make(map[int64][]models.GradeDetail)
	for _, grade := range grades {
		byCourse[grade.CourseID] = append(byCourse[grade.CourseID], grade)
	}

	transcript := &models.Transcript{Student: *student}
	var sum float64
	var count int
	for _, enrollment := range enrollments {
		course := models.TranscriptCourse{
			CourseCode: enrollment.CourseCode,
			CourseName: enrollment.CourseName,
			Status:     enrollment.Status,
			Grades:     byCourse[enrollment.CourseID],
		}
		if full, err := s.courses.FindByID(ctx, enrollment.CourseID); err == nil {
			course.Credits = full.Credits
		}
		var courseSum float64
		for _, grade := range course.Grades {
			courseSum += grade.Score
			sum += grade.Score
			count++
		}
		if len(course.Grades) > 0 {
			course.Average = courseSum / float64(len(course.Grades))
		}
		transcript.Courses = append(transcript.Courses, course)
	}
	if count > 0 {
		transcript.Average = sum / float64(count)
	}
	return transcript, nil
}

// TranscriptPDF renders the transcript as a downloadable PDF.
func (s *ReportService) TranscriptPDF(ctx context.Context, studentID int64) ([]byte, string, error) {
	transcript, err := s.Transcript(ctx, studentID)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Title: "Academic Transcript",
		Meta: []string{
			fmt.Sprintf("Student: %s (%s)", transcript.Student.FullName, transcript.Student.StudentCode),
			fmt.Sprintf("Class: %s    Major: %s", transcript.Student.Class, transcript.Student.Major),
			fmt.Sprintf("Overall average: %.2f", transcript.Average),
		},
		Headers: []string{"Course", "Name", "Credits", "Status", "Grades", "Average"},
	}
	for _, course := range transcript.Courses {
		data.Rows = append(data.Rows, map[string]string{
			"Course":  course.CourseCode,
			"Name":    course.CourseName,
			"Credits": fmt.Sprintf("%d", course.Credits),
			"Status":  string(course.Status),
			"Grades":  fmt.Sprintf("%d", len(course.Grades)),
			"Average": fmt.Sprintf("%.2f", course.Average),
		})
	}

	payload, err := s.pdf.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
	}

	filename := fmt.Sprintf("transcript-%s.pdf", transcript.Student.StudentCode)
	s.logger.Info("transcript rendered", zap.Int64("student_id", studentID), zap.Int("courses", len(transcript.Courses)))
	return payload, filename, nil
}

// TranscriptCSV renders the transcript's course table as CSV.
func (s *ReportService) TranscriptCSV(ctx context.Context, studentID int64) ([]byte, string, error) {
	transcript, err := s.Transcript(ctx, studentID)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"Course", "Name", "Credits", "Status", "Average"},
	}
	for _, course := range transcript.Courses {
		data.Rows = append(data.Rows, map[string]string{
			"Course":  course.CourseCode,
			"Name":    course.CourseName,
			"Credits": fmt.Sprintf("%d", course.Credits),
			"Status":  string(course.Status),
			"Average": fmt.Sprintf("%.2f", course.Average),
		})
	}

	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
	}
	return payload, fmt.Sprintf("transcript-%s.csv", transcript.Student.StudentCode), nil
}
