package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	"github.com/noah-isme/pgr-adp-api/internal/service"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
	"github.com/noah-isme/pgr-adp-api/pkg/response"
)

// TimelineHandler exposes research timeline endpoints.
type TimelineHandler struct {
	timelines *service.TimelineService
}

// NewTimelineHandler constructs TimelineHandler.
func NewTimelineHandler(timelines *service.TimelineService) *TimelineHandler {
	return &TimelineHandler{timelines: timelines}
}

// List godoc
// @Summary List timeline milestones
// @Tags Timelines
// @Produce json
// @Param student_number query string false "Filter by student"
// @Param stage query string false "Filter by stage"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /timelines [get]
func (h *TimelineHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.TimelineFilter{
		StudentNumber: c.Query("student_number"),
		Stage:         c.Query("stage"),
		Status:        c.Query("status"),
	}
	milestones, err := h.timelines.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, milestones, nil)
}

// Get godoc
// @Summary Get milestone detail
// @Tags Timelines
// @Produce json
// @Param id path int true "Milestone ID"
// @Success 200 {object} response.Envelope
// @Router /timelines/{id} [get]
func (h *TimelineHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	milestone, err := h.timelines.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, milestone, nil)
}

// Create godoc
// @Summary Create milestone
// @Tags Timelines
// @Accept json
// @Produce json
// @Param payload body service.CreateMilestoneRequest true "Milestone payload"
// @Success 201 {object} response.Envelope
// @Router /timelines [post]
func (h *TimelineHandler) Create(c *gin.Context) {
	var req service.CreateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	milestone, err := h.timelines.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, milestone)
}

// Update godoc
// @Summary Update milestone
// @Tags Timelines
// @Accept json
// @Produce json
// @Param id path int true "Milestone ID"
// @Param payload body service.UpdateMilestoneRequest true "Milestone payload"
// @Success 200 {object} response.Envelope
// @Router /timelines/{id} [put]
func (h *TimelineHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	milestone, err := h.timelines.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, milestone, nil)
}

// Complete godoc
// @Summary Mark milestone completed
// @Tags Timelines
// @Accept json
// @Produce json
// @Param id path int true "Milestone ID"
// @Param payload body service.CompleteMilestoneRequest false "Completion payload"
// @Success 200 {object} response.Envelope
// @Router /timelines/{id}/complete [post]
func (h *TimelineHandler) Complete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.CompleteMilestoneRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	milestone, err := h.timelines.Complete(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, milestone, nil)
}

// Delete godoc
// @Summary Delete milestone
// @Tags Timelines
// @Produce json
// @Param id path int true "Milestone ID"
// @Success 204
// @Router /timelines/{id} [delete]
func (h *TimelineHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.timelines.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SweepOverdue godoc
// @Summary Flag overdue milestones
// @Tags Timelines
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timelines/sweep-overdue [post]
func (h *TimelineHandler) SweepOverdue(c *gin.Context) {
	changed, err := h.timelines.SweepOverdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"marked_overdue": changed}, nil)
}
