package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
	"github.com/noah-isme/pgr-adp-api/pkg/jobs"
	"github.com/noah-isme/pgr-adp-api/pkg/mailer"
)

type notificationRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	MarkDelivered(ctx context.Context, id int64, deliveredAt time.Time) error
	ListRetryable(ctx context.Context, limit int) ([]models.Notification, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
}

type notificationUserLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// NotificationEvent describes a domain event to notify a user about. When
// ActionType is set, Variables fill the {name} placeholders of the matching
// template; otherwise Title and Message carry the content directly. Type
// selects the delivery channel and defaults to email.
type NotificationEvent struct {
	UserID            int64
	ActionType        string
	Variables         map[string]string
	Title             string
	Message           string
	Type              models.NotificationType
	Priority          models.NotificationPriority
	RelatedEntityType string
	RelatedEntityID   int64
	RecipientEmail    string
	RecipientPhone    string
}

var templateVariablePattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// DefaultTemplates returns the built-in notification catalogue.
func DefaultTemplates() map[string]models.NotificationTemplate {
	templates := []models.NotificationTemplate{
		{ActionType: "appraisal_student_submitted", TitleTemplate: "Appraisal submitted", MessageTemplate: "Student {student_number} submitted their {academic_year} appraisal.", Priority: models.PriorityNormal},
		{ActionType: "appraisal_dos_submitted", TitleTemplate: "DoS assessment submitted", MessageTemplate: "The Director of Studies assessment for student {student_number} ({academic_year}) is ready for review.", Priority: models.PriorityNormal},
		{ActionType: "appraisal_reviewed", TitleTemplate: "Appraisal reviewed", MessageTemplate: "Your {academic_year} appraisal has been reviewed.", Priority: models.PriorityNormal},
		{ActionType: "appraisal_approved", TitleTemplate: "Appraisal outcome recorded", MessageTemplate: "Your {academic_year} appraisal outcome is now {status}.", Priority: models.PriorityHigh},
		{ActionType: "submission_received", TitleTemplate: "Submission received", MessageTemplate: "Submission '{title}' from student {student_number} is awaiting review.", Priority: models.PriorityNormal},
		{ActionType: "submission_reviewed", TitleTemplate: "Submission reviewed", MessageTemplate: "Your submission '{title}' has been {status}.", Priority: models.PriorityHigh},
		{ActionType: "viva_team_proposed", TitleTemplate: "Viva team proposed", MessageTemplate: "A viva team for student {student_number} ({stage}) has been proposed.", Priority: models.PriorityNormal},
		{ActionType: "viva_team_approved", TitleTemplate: "Viva team approved", MessageTemplate: "The viva team for student {student_number} ({stage}) has been approved.", Priority: models.PriorityNormal},
		{ActionType: "viva_team_rejected", TitleTemplate: "Viva team rejected", MessageTemplate: "The viva team for student {student_number} ({stage}) was rejected: {reason}", Priority: models.PriorityHigh},
		{ActionType: "viva_scheduled", TitleTemplate: "Viva scheduled", MessageTemplate: "Your {stage} viva has been scheduled for {date}.", Priority: models.PriorityUrgent},
		{ActionType: "extension_requested", TitleTemplate: "Registration extension requested", MessageTemplate: "Student {student_number} requested a registration extension.", Priority: models.PriorityNormal},
		{ActionType: "extension_approved", TitleTemplate: "Registration extension approved", MessageTemplate: "Your registration extension of {days} days has been approved.", Priority: models.PriorityHigh},
		{ActionType: "milestone_overdue", TitleTemplate: "Milestone overdue", MessageTemplate: "Milestone '{milestone}' for student {student_number} is overdue.", Priority: models.PriorityHigh},
	}
	out := make(map[string]models.NotificationTemplate, len(templates))
	for _, tpl := range templates {
		out[tpl.ActionType] = tpl
	}
	return out
}

// NotificationService persists notifications and delivers them through a
// background queue so request handlers never block on the mail provider.
type NotificationService struct {
	repo      notificationRepository
	users     notificationUserLookup
	mailer    mailer.Mailer
	templates map[string]models.NotificationTemplate
	logger    *zap.Logger

	maxRetries int
	queue      *jobs.Queue
}

// NotificationQueueConfig tunes the dispatch worker pool.
type NotificationQueueConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NewNotificationService constructs the notification service and its
// dispatch queue. Call Start before enqueueing and Stop on shutdown.
func NewNotificationService(repo notificationRepository, users notificationUserLookup, sender mailer.Mailer, logger *zap.Logger, cfg NotificationQueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	s := &NotificationService{
		repo:       repo,
		users:      users,
		mailer:     sender,
		templates:  DefaultTemplates(),
		logger:     logger,
		maxRetries: cfg.MaxRetries,
	}
	s.queue = jobs.NewQueue("notifications", s.handleDispatch, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Render expands the template for actionType with the given variables. An
// unreplaced placeholder is an error so broken notifications fail loudly
// instead of reaching users half-filled.
func (s *NotificationService) Render(actionType string, vars map[string]string) (title, message string, priority models.NotificationPriority, err error) {
	tpl, ok := s.templates[actionType]
	if !ok {
		return "", "", "", appErrors.Clone(appErrors.ErrUnknownTemplate, fmt.Sprintf("no notification template for action %q", actionType))
	}
	title, err = interpolate(tpl.TitleTemplate, vars)
	if err != nil {
		return "", "", "", err
	}
	message, err = interpolate(tpl.MessageTemplate, vars)
	if err != nil {
		return "", "", "", err
	}
	return title, message, tpl.Priority, nil
}

func interpolate(template string, vars map[string]string) (string, error) {
	var missing string
	out := templateVariablePattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return match
		}
		return value
	})
	if missing != "" {
		return "", appErrors.Clone(appErrors.ErrTemplateVariable, fmt.Sprintf("missing template variable %q", missing))
	}
	return out, nil
}

// Notify persists a notification and enqueues delivery. Template events are
// rendered from their action type; direct events carry title and message
// themselves. Persistence errors are returned; queue errors are only logged
// because delivery can be recovered later by the retry sweep.
func (s *NotificationService) Notify(ctx context.Context, event NotificationEvent) (*models.Notification, error) {
	title, message, priority := event.Title, event.Message, event.Priority
	if event.ActionType != "" {
		var err error
		title, message, priority, err = s.Render(event.ActionType, event.Variables)
		if err != nil {
			return nil, err
		}
	} else if title == "" || message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "notification requires an action type or a title and message")
	}
	if priority == "" {
		priority = models.PriorityNormal
	}

	channel := event.Type
	if channel == "" {
		channel = models.NotificationEmail
	}
	if !models.ValidNotificationType(channel) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown notification channel %q", channel))
	}

	notification := &models.Notification{
		UserID:     event.UserID,
		Type:       channel,
		Title:      title,
		Message:    message,
		ActionType: event.ActionType,
		Priority:   priority,
		Status:     models.NotificationPending,
		MaxRetries: s.maxRetries,
	}
	if event.RelatedEntityType != "" {
		notification.RelatedEntityType = &event.RelatedEntityType
	}
	if event.RelatedEntityID != 0 {
		notification.RelatedEntityID = &event.RelatedEntityID
	}
	if event.RecipientEmail != "" {
		notification.RecipientEmail = &event.RecipientEmail
	}
	if event.RecipientPhone != "" {
		notification.RecipientPhone = &event.RecipientPhone
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist notification")
	}

	s.enqueue(notification.ID)
	return notification, nil
}

func (s *NotificationService) enqueue(id int64) {
	if err := s.queue.Enqueue(jobs.Job{
		ID:      fmt.Sprintf("notification-%d", id),
		Type:    "dispatch",
		Payload: id,
	}); err != nil {
		s.logger.Warn("failed to enqueue notification dispatch", zap.Int64("notification_id", id), zap.Error(err))
	}
}

func (s *NotificationService) handleDispatch(ctx context.Context, job jobs.Job) error {
	id, ok := job.Payload.(int64)
	if !ok {
		return fmt.Errorf("unexpected dispatch payload %T", job.Payload)
	}
	return s.Dispatch(ctx, id)
}

// Dispatch sends a single persisted notification over its channel and
// records the outcome on the row. Email goes through the mail provider,
// in-app messages are delivered the moment they are stored, and SMS is a
// stub that logs the handoff until a carrier is wired in.
func (s *NotificationService) Dispatch(ctx context.Context, id int64) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load notification %d: %w", id, err)
	}
	if notification.Status == models.NotificationSent || notification.Status == models.NotificationDelivered {
		return nil
	}

	switch notification.Type {
	case models.NotificationEmail:
		return s.dispatchEmail(ctx, notification)
	case models.NotificationSMS:
		phone := ""
		if notification.RecipientPhone != nil {
			phone = *notification.RecipientPhone
		}
		// TODO: integrate an SMS carrier; until then the handoff is logged
		// and the row marked sent.
		s.logger.Info("sms notification handed off",
			zap.Int64("notification_id", notification.ID),
			zap.String("recipient_phone", phone))
		if err := s.repo.MarkSent(ctx, id, time.Now().UTC()); err != nil {
			return fmt.Errorf("mark notification %d sent: %w", id, err)
		}
		return nil
	case models.NotificationInApp:
		now := time.Now().UTC()
		if err := s.repo.MarkSent(ctx, id, now); err != nil {
			return fmt.Errorf("mark notification %d sent: %w", id, err)
		}
		if err := s.repo.MarkDelivered(ctx, id, now); err != nil {
			return fmt.Errorf("mark notification %d delivered: %w", id, err)
		}
		return nil
	default:
		if markErr := s.repo.MarkFailed(ctx, id, fmt.Sprintf("unsupported channel %q", notification.Type)); markErr != nil {
			s.logger.Warn("failed to record notification failure", zap.Int64("notification_id", id), zap.Error(markErr))
		}
		return fmt.Errorf("dispatch notification %d: unsupported channel %q", id, notification.Type)
	}
}

func (s *NotificationService) dispatchEmail(ctx context.Context, notification *models.Notification) error {
	id := notification.ID
	email := ""
	if notification.RecipientEmail != nil {
		email = *notification.RecipientEmail
	}
	if email == "" {
		user, err := s.users.FindByID(ctx, notification.UserID)
		if err != nil {
			markErr := s.repo.MarkFailed(ctx, id, "recipient lookup failed")
			if markErr != nil {
				s.logger.Warn("failed to record notification failure", zap.Int64("notification_id", id), zap.Error(markErr))
			}
			return fmt.Errorf("load recipient for notification %d: %w", id, err)
		}
		email = user.Email
	}

	if err := s.mailer.Send(ctx, mailer.Message{
		ToEmail: email,
		Subject: notification.Title,
		Body:    notification.Message,
	}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, id, err.Error()); markErr != nil {
			s.logger.Warn("failed to record notification failure", zap.Int64("notification_id", id), zap.Error(markErr))
		}
		return fmt.Errorf("send notification %d: %w", id, err)
	}

	if err := s.repo.MarkSent(ctx, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notification %d sent: %w", id, err)
	}
	return nil
}

// MarkDelivered records recipient acknowledgement of an in-app or push
// notification.
func (s *NotificationService) MarkDelivered(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if err := s.repo.MarkDelivered(ctx, id, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification delivered")
	}
	return nil
}

// RetryFailed re-enqueues failed notifications still under their retry cap
// and returns how many were queued.
func (s *NotificationService) RetryFailed(ctx context.Context, limit int) (int, error) {
	notifications, err := s.repo.ListRetryable(ctx, limit)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list retryable notifications")
	}
	for _, n := range notifications {
		s.enqueue(n.ID)
	}
	return len(notifications), nil
}

// List returns notifications with pagination metadata. Non-admin callers
// are pinned to their own notifications by the handler.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return notifications, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Templates exposes the catalogue for the admin endpoint.
func (s *NotificationService) Templates() []models.NotificationTemplate {
	out := make([]models.NotificationTemplate, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, tpl)
	}
	return out
}
