package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

// NotificationRepository persists notifications and their delivery
// bookkeeping.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// FindByID fetches a notification by primary key.
func (r *NotificationRepository) FindByID(ctx context.Context, id int64) (*models.Notification, error) {
	const query = `SELECT * FROM notifications WHERE id = $1`
	var notification models.Notification
	if err := r.db.GetContext(ctx, &notification, query, id); err != nil {
		return nil, err
	}
	return &notification, nil
}

// Create inserts a notification and populates the generated ID.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	now := time.Now().UTC()
	notification.CreatedAt = now
	notification.UpdatedAt = now
	if notification.ScheduledAt.IsZero() {
		notification.ScheduledAt = now
	}
	if notification.Status == "" {
		notification.Status = models.NotificationPending
	}
	const query = `INSERT INTO notifications (user_id, type, title, message, action_type, related_entity_type, related_entity_id,
        priority, status, recipient_email, recipient_phone, scheduled_at, error_message, retry_count, max_retries, extra_data,
        created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		notification.UserID, notification.Type, notification.Title, notification.Message, notification.ActionType,
		notification.RelatedEntityType, notification.RelatedEntityID, notification.Priority, notification.Status,
		notification.RecipientEmail, notification.RecipientPhone, notification.ScheduledAt, notification.ErrorMessage,
		notification.RetryCount, notification.MaxRetries, notification.ExtraData, notification.CreatedAt, notification.UpdatedAt,
	).Scan(&notification.ID); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// MarkSent records a successful delivery.
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	const query = `UPDATE notifications SET status = $2, sent_at = $3, error_message = NULL, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationSent, sentAt); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a failed delivery attempt and bumps the retry count.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	const query = `UPDATE notifications SET status = $2, error_message = $3, retry_count = retry_count + 1, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationFailed, errorMessage, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

// MarkDelivered records recipient acknowledgement.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id int64, deliveredAt time.Time) error {
	const query = `UPDATE notifications SET status = $2, delivered_at = $3, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationDelivered, deliveredAt); err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}
	return nil
}

// ListRetryable returns failed notifications still under their retry cap.
func (r *NotificationRepository) ListRetryable(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT * FROM notifications WHERE status = $1 AND retry_count < max_retries ORDER BY updated_at ASC LIMIT %d`, limit)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, models.NotificationFailed); err != nil {
		return nil, fmt.Errorf("list retryable notifications: %w", err)
	}
	return notifications, nil
}

// List returns notifications matching the filter plus the total match count.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, *filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}

	where := strings.Join(conditions, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf("SELECT * FROM notifications WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d", where, size, (page-1)*size)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM notifications WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}
