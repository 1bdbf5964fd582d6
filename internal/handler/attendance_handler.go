package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sims-platform/sims-api/internal/models"
	"github.com/sims-platform/sims-api/internal/service"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
	"github.com/sims-platform/sims-api/pkg/response"
)

// AttendanceHandler handles attendance endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// List godoc
// @Summary List attendance records
// @Description List attendance scoped to the caller's role
// @Tags Attendance
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param student_id query int false "Student filter"
// @Param course_id query int false "Course filter"
// @Param from query string false "Start date (RFC 3339)"
// @Param to query string false "End date (RFC 3339)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.AttendanceFilter
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "page_size", 20)
	filter.StudentID = queryInt64(c, "student_id")
	filter.CourseID = queryInt64(c, "course_id")
	if from := c.Query("from"); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &ts
		}
	}
	if to := c.Query("to"); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &ts
		}
	}

	records, pagination, err := h.service.List(c.Request.Context(), principal, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Record godoc
// @Summary Record attendance
// @Description Mark a student's presence for a course date
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.RecordAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	record, err := h.service.Record(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}
