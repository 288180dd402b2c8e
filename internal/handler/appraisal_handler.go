package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	"github.com/noah-isme/pgr-adp-api/internal/service"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
	"github.com/noah-isme/pgr-adp-api/pkg/response"
)

// AppraisalHandler exposes annual appraisal workflow endpoints.
type AppraisalHandler struct {
	appraisals *service.AppraisalService
}

// NewAppraisalHandler constructs AppraisalHandler.
func NewAppraisalHandler(appraisals *service.AppraisalService) *AppraisalHandler {
	return &AppraisalHandler{appraisals: appraisals}
}

// List godoc
// @Summary List appraisals
// @Tags Appraisals
// @Produce json
// @Param student_number query string false "Filter by student"
// @Param academic_year query string false "Filter by academic year"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /appraisals [get]
func (h *AppraisalHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.AppraisalFilter{
		StudentNumber: c.Query("student_number"),
		AcademicYear:  c.Query("academic_year"),
		Status:        c.Query("status"),
		Page:          queryInt(c, "page", 1),
		PageSize:      queryInt(c, "limit", 20),
	}
	appraisals, pagination, err := h.appraisals.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appraisals, pagination)
}

// Get godoc
// @Summary Get appraisal detail
// @Tags Appraisals
// @Produce json
// @Param id path int true "Appraisal ID"
// @Success 200 {object} response.Envelope
// @Router /appraisals/{id} [get]
func (h *AppraisalHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	appraisal, err := h.appraisals.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appraisal, nil)
}

// Create godoc
// @Summary Open an appraisal cycle
// @Tags Appraisals
// @Accept json
// @Produce json
// @Param payload body service.CreateAppraisalRequest true "Appraisal payload"
// @Success 201 {object} response.Envelope
// @Router /appraisals [post]
func (h *AppraisalHandler) Create(c *gin.Context) {
	var req service.CreateAppraisalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	appraisal, err := h.appraisals.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appraisal)
}

// SubmitStudent godoc
// @Summary Submit the student's section of an appraisal
// @Tags Appraisals
// @Accept json
// @Produce json
// @Param id path int true "Appraisal ID"
// @Param payload body models.StudentAppraisalFields true "Student fields"
// @Success 200 {object} response.Envelope
// @Router /appraisals/{id}/submit-student [post]
func (h *AppraisalHandler) SubmitStudent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var fields models.StudentAppraisalFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	appraisal, err := h.appraisals.SubmitStudent(c.Request.Context(), actor, id, fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appraisal, nil)
}

// SubmitDOS godoc
// @Summary Submit the Director of Studies assessment
// @Tags Appraisals
// @Accept json
// @Produce json
// @Param id path int true "Appraisal ID"
// @Param payload body models.DOSAppraisalFields true "DoS fields"
// @Success 200 {object} response.Envelope
// @Router /appraisals/{id}/submit-dos [post]
func (h *AppraisalHandler) SubmitDOS(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var fields models.DOSAppraisalFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	appraisal, err := h.appraisals.SubmitDOS(c.Request.Context(), actor, id, fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appraisal, nil)
}

// Review godoc
// @Summary Start reviewing an appraisal
// @Tags Appraisals
// @Accept json
// @Produce json
// @Param id path int true "Appraisal ID"
// @Param payload body service.ReviewAppraisalRequest false "Review payload"
// @Success 200 {object} response.Envelope
// @Router /appraisals/{id}/review [post]
func (h *AppraisalHandler) Review(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.ReviewAppraisalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	appraisal, err := h.appraisals.Review(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appraisal, nil)
}

// Approve godoc
// @Summary Record the appraisal outcome
// @Tags Appraisals
// @Accept json
// @Produce json
// @Param id path int true "Appraisal ID"
// @Param payload body service.ApproveAppraisalRequest true "Outcome payload"
// @Success 200 {object} response.Envelope
// @Router /appraisals/{id}/approve [post]
func (h *AppraisalHandler) Approve(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.ApproveAppraisalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	appraisal, err := h.appraisals.Approve(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appraisal, nil)
}
