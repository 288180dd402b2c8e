package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	"github.com/noah-isme/pgr-adp-api/internal/service"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
	"github.com/noah-isme/pgr-adp-api/pkg/response"
)

// VivaHandler exposes viva team workflow endpoints.
type VivaHandler struct {
	vivas *service.VivaService
}

// NewVivaHandler constructs VivaHandler.
func NewVivaHandler(vivas *service.VivaService) *VivaHandler {
	return &VivaHandler{vivas: vivas}
}

// List godoc
// @Summary List viva teams
// @Tags VivaTeams
// @Produce json
// @Param student_number query string false "Filter by student"
// @Param stage query string false "Filter by stage"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /viva-teams [get]
func (h *VivaHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.VivaTeamFilter{
		StudentNumber: c.Query("student_number"),
		Stage:         c.Query("stage"),
		Status:        c.Query("status"),
		Page:          queryInt(c, "page", 1),
		PageSize:      queryInt(c, "limit", 20),
	}
	teams, pagination, err := h.vivas.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teams, pagination)
}

// Get godoc
// @Summary Get viva team detail
// @Tags VivaTeams
// @Produce json
// @Param id path int true "Viva team ID"
// @Success 200 {object} response.Envelope
// @Router /viva-teams/{id} [get]
func (h *VivaHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	team, err := h.vivas.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}

// Propose godoc
// @Summary Propose a viva team
// @Tags VivaTeams
// @Accept json
// @Produce json
// @Param payload body service.ProposeVivaTeamRequest true "Panel payload"
// @Success 201 {object} response.Envelope
// @Router /viva-teams [post]
func (h *VivaHandler) Propose(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.ProposeVivaTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	team, err := h.vivas.Propose(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, team)
}

// Update godoc
// @Summary Update viva team composition
// @Tags VivaTeams
// @Accept json
// @Produce json
// @Param id path int true "Viva team ID"
// @Param payload body service.UpdateVivaTeamRequest true "Panel payload"
// @Success 200 {object} response.Envelope
// @Router /viva-teams/{id} [put]
func (h *VivaHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateVivaTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	team, err := h.vivas.UpdateTeam(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}

// Approve godoc
// @Summary Approve a viva team
// @Tags VivaTeams
// @Produce json
// @Param id path int true "Viva team ID"
// @Success 200 {object} response.Envelope
// @Router /viva-teams/{id}/approve [post]
func (h *VivaHandler) Approve(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	team, err := h.vivas.Approve(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}

// Reject godoc
// @Summary Reject a viva team
// @Tags VivaTeams
// @Accept json
// @Produce json
// @Param id path int true "Viva team ID"
// @Param payload body service.RejectVivaTeamRequest true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Router /viva-teams/{id}/reject [post]
func (h *VivaHandler) Reject(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.RejectVivaTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	team, err := h.vivas.Reject(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}

// Schedule godoc
// @Summary Schedule a viva examination
// @Tags VivaTeams
// @Accept json
// @Produce json
// @Param id path int true "Viva team ID"
// @Param payload body service.ScheduleVivaRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /viva-teams/{id}/schedule [post]
func (h *VivaHandler) Schedule(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.ScheduleVivaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	team, err := h.vivas.Schedule(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}

// Outcome godoc
// @Summary Record the viva outcome
// @Tags VivaTeams
// @Accept json
// @Produce json
// @Param id path int true "Viva team ID"
// @Param payload body service.VivaOutcomeRequest true "Outcome payload"
// @Success 200 {object} response.Envelope
// @Router /viva-teams/{id}/outcome [post]
func (h *VivaHandler) Outcome(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.VivaOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	team, err := h.vivas.RecordOutcome(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}
