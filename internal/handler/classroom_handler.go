package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sims-platform/sims-api/internal/models"
	"github.com/sims-platform/sims-api/internal/service"
	appErrors "github.com/sims-platform/sims-api/pkg/errors"
	"github.com/sims-platform/sims-api/pkg/response"
)

// ClassRoomHandler handles class-room endpoints.
type ClassRoomHandler struct {
	service *service.ClassRoomService
}

// NewClassRoomHandler creates a new class-room handler.
func NewClassRoomHandler(svc *service.ClassRoomService) *ClassRoomHandler {
	return &ClassRoomHandler{service: svc}
}

// List godoc
// @Summary List class rooms
// @Tags Classes
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param department query string false "Department filter"
// @Param academic_year query string false "Academic year filter"
// @Param active query bool false "Active filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes [get]
func (h *ClassRoomHandler) List(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.ClassRoomFilter
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "page_size", 20)
	filter.Department = c.Query("department")
	filter.AcademicYear = c.Query("academic_year")
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filter.IsActive = &val
		}
	}

	classes, pagination, err := h.service.List(c.Request.Context(), principal, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Get class room
// @Tags Classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id} [get]
func (h *ClassRoomHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class id"))
		return
	}

	class, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Create godoc
// @Summary Create class room
// @Description Create a class room with its initial course set
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.ClassRoomRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /classes [post]
func (h *ClassRoomHandler) Create(c *gin.Context) {
	var req service.ClassRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}

	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class room
// @Description Edit class fields and reconcile the attached course set
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path int true "Class ID"
// @Param payload body service.ClassRoomRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id} [put]
func (h *ClassRoomHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class id"))
		return
	}

	var req service.ClassRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}

	class, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete class room
// @Description Remove a class; blocked while active students carry its label
// @Tags Classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id} [delete]
func (h *ClassRoomHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
