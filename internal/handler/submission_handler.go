package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	"github.com/noah-isme/pgr-adp-api/internal/service"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
	"github.com/noah-isme/pgr-adp-api/pkg/response"
)

// SubmissionHandler exposes document submission endpoints.
type SubmissionHandler struct {
	submissions *service.SubmissionService
}

// NewSubmissionHandler constructs SubmissionHandler.
func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// List godoc
// @Summary List submissions
// @Tags Submissions
// @Produce json
// @Param student_number query string false "Filter by student"
// @Param type query string false "Filter by submission type"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.SubmissionFilter{
		StudentNumber: c.Query("student_number"),
		Type:          c.Query("type"),
		Status:        c.Query("status"),
		Page:          queryInt(c, "page", 1),
		PageSize:      queryInt(c, "limit", 20),
	}
	submissions, pagination, err := h.submissions.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, pagination)
}

// Get godoc
// @Summary Get submission detail
// @Tags Submissions
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	submission, err := h.submissions.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Create godoc
// @Summary Open a draft submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body service.CreateSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// Update godoc
// @Summary Edit a draft submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param payload body service.UpdateSubmissionRequest true "Submission payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id} [put]
func (h *SubmissionHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Upload godoc
// @Summary Attach a document to a draft submission
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Submission ID"
// @Param file formData file true "Document"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/file [post]
func (h *SubmissionHandler) Upload(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing file field"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file"))
		return
	}
	defer file.Close()

	submission, err := h.submissions.AttachFile(c.Request.Context(), actor, id, service.UploadedFile{
		Name:     fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Download godoc
// @Summary Download the attached document
// @Tags Submissions
// @Produce octet-stream
// @Param id path int true "Submission ID"
// @Success 200 {file} binary
// @Router /submissions/{id}/file [get]
func (h *SubmissionHandler) Download(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	reader, submission, err := h.submissions.OpenFile(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer reader.Close()

	name := "document"
	if submission.FileName != nil {
		name = *submission.FileName
	}
	contentType := "application/octet-stream"
	if submission.MimeType != nil && *submission.MimeType != "" {
		contentType = *submission.MimeType
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

// Submit godoc
// @Summary Hand a draft over for review
// @Tags Submissions
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	h.transition(c, h.submissions.Submit)
}

// StartReview godoc
// @Summary Start reviewing a submission
// @Tags Submissions
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/review [post]
func (h *SubmissionHandler) StartReview(c *gin.Context) {
	h.transition(c, h.submissions.StartReview)
}

// Approve godoc
// @Summary Approve a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param payload body service.ReviewSubmissionRequest false "Review payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/approve [post]
func (h *SubmissionHandler) Approve(c *gin.Context) {
	h.decide(c, h.submissions.Approve)
}

// Reject godoc
// @Summary Reject a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param payload body service.ReviewSubmissionRequest false "Review payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/reject [post]
func (h *SubmissionHandler) Reject(c *gin.Context) {
	h.decide(c, h.submissions.Reject)
}

// RequireRevision godoc
// @Summary Send a submission back for revision
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param payload body service.ReviewSubmissionRequest false "Review payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/require-revision [post]
func (h *SubmissionHandler) RequireRevision(c *gin.Context) {
	h.decide(c, h.submissions.RequireRevision)
}

// Pending godoc
// @Summary List submissions awaiting review
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /submissions/pending-review [get]
func (h *SubmissionHandler) Pending(c *gin.Context) {
	submissions, err := h.submissions.PendingReview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

func (h *SubmissionHandler) transition(c *gin.Context, fn func(ctx context.Context, actor models.Actor, id int64) (*models.Submission, error)) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	submission, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

func (h *SubmissionHandler) decide(c *gin.Context, fn func(ctx context.Context, actor models.Actor, id int64, req service.ReviewSubmissionRequest) (*models.Submission, error)) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.ReviewSubmissionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	submission, err := fn(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}
