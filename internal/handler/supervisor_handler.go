package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pgr-adp-api/internal/service"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
	"github.com/noah-isme/pgr-adp-api/pkg/response"
)

// SupervisorHandler exposes supervisor and assignment endpoints.
type SupervisorHandler struct {
	supervisors *service.SupervisorService
}

// NewSupervisorHandler constructs SupervisorHandler.
func NewSupervisorHandler(supervisors *service.SupervisorService) *SupervisorHandler {
	return &SupervisorHandler{supervisors: supervisors}
}

// List godoc
// @Summary List supervisors
// @Tags Supervisors
// @Produce json
// @Param search query string false "Search by name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /supervisors [get]
func (h *SupervisorHandler) List(c *gin.Context) {
	supervisors, pagination, err := h.supervisors.List(
		c.Request.Context(),
		strings.TrimSpace(c.Query("search")),
		queryInt(c, "page", 1),
		queryInt(c, "limit", 20),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supervisors, pagination)
}

// Get godoc
// @Summary Get supervisor detail
// @Tags Supervisors
// @Produce json
// @Param id path int true "Supervisor ID"
// @Success 200 {object} response.Envelope
// @Router /supervisors/{id} [get]
func (h *SupervisorHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	supervisor, err := h.supervisors.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supervisor, nil)
}

// Create godoc
// @Summary Create supervisor
// @Tags Supervisors
// @Accept json
// @Produce json
// @Param payload body service.SupervisorRequest true "Supervisor payload"
// @Success 201 {object} response.Envelope
// @Router /supervisors [post]
func (h *SupervisorHandler) Create(c *gin.Context) {
	var req service.SupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	supervisor, err := h.supervisors.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, supervisor)
}

// Update godoc
// @Summary Update supervisor
// @Tags Supervisors
// @Accept json
// @Produce json
// @Param id path int true "Supervisor ID"
// @Param payload body service.SupervisorRequest true "Supervisor payload"
// @Success 200 {object} response.Envelope
// @Router /supervisors/{id} [put]
func (h *SupervisorHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.SupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	supervisor, err := h.supervisors.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supervisor, nil)
}

// Assignments godoc
// @Summary List a supervisor's student assignments
// @Tags Supervisors
// @Produce json
// @Param id path int true "Supervisor ID"
// @Success 200 {object} response.Envelope
// @Router /supervisors/{id}/students [get]
func (h *SupervisorHandler) Assignments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	assignments, err := h.supervisors.SupervisorAssignments(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Assign godoc
// @Summary Assign a supervisor to a student
// @Tags Supervisors
// @Accept json
// @Produce json
// @Param payload body service.AssignSupervisorRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /student-supervisors [post]
func (h *SupervisorHandler) Assign(c *gin.Context) {
	var req service.AssignSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.supervisors.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// UpdateAssignment godoc
// @Summary Update a supervision assignment
// @Tags Supervisors
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body service.UpdateAssignmentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /student-supervisors/{id} [put]
func (h *SupervisorHandler) UpdateAssignment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.supervisors.UpdateAssignment(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// RemoveAssignment godoc
// @Summary Remove a supervision assignment
// @Tags Supervisors
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 204
// @Router /student-supervisors/{id} [delete]
func (h *SupervisorHandler) RemoveAssignment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.supervisors.RemoveAssignment(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
