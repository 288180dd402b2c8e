package models

import "time"

// NotificationType selects the delivery channel.
type NotificationType string

const (
	NotificationEmail NotificationType = "email"
	NotificationSMS   NotificationType = "sms"
	NotificationInApp NotificationType = "in_app"
	NotificationPush  NotificationType = "push"
)

// ValidNotificationType reports whether t is a recognised delivery channel.
func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationEmail, NotificationSMS, NotificationInApp, NotificationPush:
		return true
	}
	return false
}

// NotificationStatus tracks delivery progress.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationFailed    NotificationStatus = "failed"
	NotificationDelivered NotificationStatus = "delivered"
)

// NotificationPriority orders messages for recipients.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Notification is a persisted message to a user. Delivery failures are
// recorded on the row (status, error, retry count) rather than surfaced to
// the request that triggered the send.
type Notification struct {
	ID                int64                `db:"id" json:"id"`
	UserID            int64                `db:"user_id" json:"user_id"`
	Type              NotificationType     `db:"type" json:"type"`
	Title             string               `db:"title" json:"title"`
	Message           string               `db:"message" json:"message"`
	ActionType        string               `db:"action_type" json:"action_type"`
	RelatedEntityType *string              `db:"related_entity_type" json:"related_entity_type,omitempty"`
	RelatedEntityID   *int64               `db:"related_entity_id" json:"related_entity_id,omitempty"`
	Priority          NotificationPriority `db:"priority" json:"priority"`
	Status            NotificationStatus   `db:"status" json:"status"`
	RecipientEmail    *string              `db:"recipient_email" json:"recipient_email,omitempty"`
	RecipientPhone    *string              `db:"recipient_phone" json:"recipient_phone,omitempty"`
	ScheduledAt       time.Time            `db:"scheduled_at" json:"scheduled_at"`
	SentAt            *time.Time           `db:"sent_at" json:"sent_at,omitempty"`
	DeliveredAt       *time.Time           `db:"delivered_at" json:"delivered_at,omitempty"`
	ErrorMessage      *string              `db:"error_message" json:"error_message,omitempty"`
	RetryCount        int                  `db:"retry_count" json:"retry_count"`
	MaxRetries        int                  `db:"max_retries" json:"max_retries"`
	ExtraData         *string              `db:"extra_data" json:"extra_data,omitempty"`
	CreatedAt         time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time            `db:"updated_at" json:"updated_at"`
}

// NotificationTemplate renders a title and message for a known action type.
// Placeholders use {name} syntax.
type NotificationTemplate struct {
	ActionType      string
	TitleTemplate   string
	MessageTemplate string
	Priority        NotificationPriority
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	UserID   *int64
	Status   string
	Type     string
	Page     int
	PageSize int
}
