package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sims-platform/sims-api/internal/models"
	"github.com/sims-platform/sims-api/internal/service"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
	"github.com/sims-platform/sims-api/pkg/response"
)

// DashboardHandler serves the per-role dashboard endpoint.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Get godoc
// @Summary Role dashboard
// @Description Summary counters matching the caller's role
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload interface{}
	var err error
	switch principal.Role {
	case models.RoleAdmin:
		payload, err = h.service.Admin(c.Request.Context())
	case models.RoleTeacher:
		payload, err = h.service.Teacher(c.Request.Context(), principal)
	case models.RoleStudent:
		payload, err = h.service.Student(c.Request.Context(), principal)
	default:
		err = appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// InvalidateCache godoc
// @Summary Drop cached dashboards
// @Description Evicts every cached dashboard payload so the next read recomputes
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/cache [delete]
func (h *DashboardHandler) InvalidateCache(c *gin.Context) {
	h.service.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, gin.H{"invalidated": true}, nil)
}
