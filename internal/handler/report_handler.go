package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sims-platform/sims-api/internal/models"
	"github.com/sims-platform/sims-api/internal/service"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
	"github.com/sims-platform/sims-api/pkg/response"
)

// ReportHandler serves transcript endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// resolveStudentID applies row-level scope: students always get their
// own transcript regardless of the id in the path.
func resolveStudentID(c *gin.Context, principal models.Principal) (int64, error) {
	if principal.Role == models.RoleStudent {
		if !principal.HasProfile() {
			return 0, appErrors.Clone(appErrors.ErrForbidden, "no student profile for account")
		}
		return principal.ProfileID, nil
	}
	id, err := pathID(c)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid student id")
	}
	return id, nil
}

// Transcript godoc
// @Summary Student transcript
// @Description Full academic record; students receive their own
// @Tags Reports
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/transcripts/{id} [get]
func (h *ReportHandler) Transcript(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	studentID, err := resolveStudentID(c, principal)
	if err != nil {
		response.Error(c, err)
		return
	}

	transcript, err := h.service.Transcript(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// TranscriptPDF godoc
// @Summary Download transcript as PDF
// @Tags Reports
// @Produce application/pdf
// @Param id path int true "Student ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/transcripts/{id}/pdf [get]
func (h *ReportHandler) TranscriptPDF(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	studentID, err := resolveStudentID(c, principal)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, filename, err := h.service.TranscriptPDF(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}

// TranscriptCSV godoc
// @Summary Download transcript as CSV
// @Tags Reports
// @Produce text/csv
// @Param id path int true "Student ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/transcripts/{id}/csv [get]
func (h *ReportHandler) TranscriptCSV(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	studentID, err := resolveStudentID(c, principal)
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, filename, err := h.service.TranscriptCSV(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}
