package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	"github.com/noah-isme/pgr-adp-api/internal/service"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
	"github.com/noah-isme/pgr-adp-api/pkg/response"
)

// NotificationHandler exposes notification endpoints.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// CreateNotificationRequest triggers a manual notification dispatch. Either
// action_type (with variables, rendered from the template catalogue) or a
// literal title and message must be supplied. Type picks the delivery
// channel and defaults to email.
type CreateNotificationRequest struct {
	UserID         int64             `json:"user_id" binding:"required"`
	ActionType     string            `json:"action_type"`
	Variables      map[string]string `json:"variables"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Type           string            `json:"type"`
	Priority       string            `json:"priority"`
	RecipientEmail string            `json:"recipient_email"`
	RecipientPhone string            `json:"recipient_phone"`
}

// List godoc
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by channel"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.NotificationFilter{
		Status:   c.Query("status"),
		Type:     c.Query("type"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "limit", 20),
	}
	// Only administrators may browse other users' notifications.
	if actor.Role != models.RoleSystemAdmin {
		filter.UserID = &actor.UserID
	}
	notifications, pagination, err := h.notifications.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, pagination)
}

// Create godoc
// @Summary Dispatch a notification manually
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body CreateNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Router /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	notification, err := h.notifications.Notify(c.Request.Context(), service.NotificationEvent{
		UserID:         req.UserID,
		ActionType:     req.ActionType,
		Variables:      req.Variables,
		Title:          req.Title,
		Message:        req.Message,
		Type:           models.NotificationType(req.Type),
		Priority:       models.NotificationPriority(req.Priority),
		RecipientEmail: req.RecipientEmail,
		RecipientPhone: req.RecipientPhone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}

// MarkDelivered godoc
// @Summary Acknowledge delivery of a notification
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 204
// @Router /notifications/{id}/delivered [post]
func (h *NotificationHandler) MarkDelivered(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkDelivered(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Retry godoc
// @Summary Re-enqueue failed notifications
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum notifications to retry"
// @Success 200 {object} response.Envelope
// @Router /notifications/retry [post]
func (h *NotificationHandler) Retry(c *gin.Context) {
	queued, err := h.notifications.RetryFailed(c.Request.Context(), queryInt(c, "limit", 100))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"queued": queued}, nil)
}

// Templates godoc
// @Summary List notification templates
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/templates [get]
func (h *NotificationHandler) Templates(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.notifications.Templates(), nil)
}
