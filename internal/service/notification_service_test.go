package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	"github.com/noah-isme/pgr-adp-api/pkg/config"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
	"github.com/noah-isme/pgr-adp-api/pkg/mailer"
)

type mockNotificationRepo struct {
	notifications map[int64]models.Notification
	nextID        int64
}

func (m *mockNotificationRepo) FindByID(ctx context.Context, id int64) (*models.Notification, error) {
	if n, ok := m.notifications[id]; ok {
		return &n, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if m.notifications == nil {
		m.notifications = make(map[int64]models.Notification)
	}
	m.nextID++
	notification.ID = m.nextID
	m.notifications[notification.ID] = *notification
	return nil
}

func (m *mockNotificationRepo) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	n := m.notifications[id]
	n.Status = models.NotificationSent
	n.SentAt = &sentAt
	n.ErrorMessage = nil
	m.notifications[id] = n
	return nil
}

func (m *mockNotificationRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	n := m.notifications[id]
	n.Status = models.NotificationFailed
	n.RetryCount++
	n.ErrorMessage = &errorMessage
	m.notifications[id] = n
	return nil
}

func (m *mockNotificationRepo) MarkDelivered(ctx context.Context, id int64, deliveredAt time.Time) error {
	n := m.notifications[id]
	n.Status = models.NotificationDelivered
	n.DeliveredAt = &deliveredAt
	m.notifications[id] = n
	return nil
}

func (m *mockNotificationRepo) ListRetryable(ctx context.Context, limit int) ([]models.Notification, error) {
	out := make([]models.Notification, 0)
	for _, n := range m.notifications {
		if n.Status == models.NotificationFailed && n.RetryCount < n.MaxRetries {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	out := make([]models.Notification, 0, len(m.notifications))
	for _, n := range m.notifications {
		out = append(out, n)
	}
	return out, len(out), nil
}

type mockUserLookup struct {
	users map[int64]models.User
}

func (m *mockUserLookup) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

type failingMailer struct {
	err error
}

func (m *failingMailer) Send(ctx context.Context, msg mailer.Message) error {
	return m.err
}

func newNotificationFixture(sender mailer.Mailer) (*NotificationService, *mockNotificationRepo) {
	repo := &mockNotificationRepo{}
	users := &mockUserLookup{users: map[int64]models.User{
		10: {ID: 10, Email: "student@example.ac.uk"},
	}}
	return NewNotificationService(repo, users, sender, nil, NotificationQueueConfig{MaxRetries: 3}), repo
}

func TestNotificationRenderUnknownTemplate(t *testing.T) {
	svc, _ := newNotificationFixture(nil)

	_, _, _, err := svc.Render("made_up_action", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownTemplate.Code, appErrors.FromError(err).Code)
}

func TestNotificationRenderMissingVariable(t *testing.T) {
	svc, _ := newNotificationFixture(nil)

	_, _, _, err := svc.Render("extension_approved", map[string]string{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTemplateVariable.Code, appErrors.FromError(err).Code)

	title, message, priority, err := svc.Render("extension_approved", map[string]string{"days": "90"})
	require.NoError(t, err)
	assert.Equal(t, "Registration extension approved", title)
	assert.Contains(t, message, "90 days")
	assert.Equal(t, models.PriorityHigh, priority)
}

func TestNotificationNotifyPersistsPending(t *testing.T) {
	svc, repo := newNotificationFixture(nil)

	notification, err := svc.Notify(context.Background(), NotificationEvent{
		UserID:            10,
		ActionType:        "viva_scheduled",
		Variables:         map[string]string{"stage": "final", "date": "2026-10-01T10:00:00Z"},
		RelatedEntityType: "viva_team",
		RelatedEntityID:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationPending, notification.Status)
	assert.Equal(t, models.PriorityUrgent, notification.Priority)
	require.NotNil(t, notification.RelatedEntityID)
	assert.EqualValues(t, 3, *notification.RelatedEntityID)

	stored, err := repo.FindByID(context.Background(), notification.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Message, "final viva")
}

func TestNotificationDispatchSends(t *testing.T) {
	sender := mailer.NewConsoleMailer(config.MailerConfig{FromEmail: "pgr@example.ac.uk"})
	svc, repo := newNotificationFixture(sender)

	notification, err := svc.Notify(context.Background(), NotificationEvent{
		UserID:     10,
		ActionType: "appraisal_reviewed",
		Variables:  map[string]string{"academic_year": "2025/26"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Dispatch(context.Background(), notification.ID))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "student@example.ac.uk", sent[0].ToEmail)
	assert.Equal(t, "Appraisal reviewed", sent[0].Subject)

	stored, err := repo.FindByID(context.Background(), notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSent, stored.Status)
	require.NotNil(t, stored.SentAt)

	// Dispatching a sent notification is a no-op.
	require.NoError(t, svc.Dispatch(context.Background(), notification.ID))
	assert.Len(t, sender.Sent(), 1)
}

func TestNotificationNotifyDirectContent(t *testing.T) {
	svc, repo := newNotificationFixture(nil)

	notification, err := svc.Notify(context.Background(), NotificationEvent{
		UserID:  10,
		Title:   "Maintenance window",
		Message: "The portal will be unavailable on Saturday morning.",
		Type:    models.NotificationInApp,
	})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationInApp, notification.Type)
	assert.Equal(t, models.PriorityNormal, notification.Priority)

	stored, err := repo.FindByID(context.Background(), notification.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maintenance window", stored.Title)
}

func TestNotificationNotifyRequiresContentOrTemplate(t *testing.T) {
	svc, _ := newNotificationFixture(nil)

	_, err := svc.Notify(context.Background(), NotificationEvent{UserID: 10, Title: "only a title"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Notify(context.Background(), NotificationEvent{
		UserID:  10,
		Title:   "t",
		Message: "m",
		Type:    models.NotificationType("carrier_pigeon"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNotificationDispatchSMSMarksSent(t *testing.T) {
	sender := &failingMailer{err: errors.New("mailer must not be used for sms")}
	svc, repo := newNotificationFixture(sender)

	notification, err := svc.Notify(context.Background(), NotificationEvent{
		UserID:         10,
		Title:          "Viva reminder",
		Message:        "Your viva starts in one hour.",
		Type:           models.NotificationSMS,
		RecipientPhone: "+441695575171",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Dispatch(context.Background(), notification.ID))

	stored, err := repo.FindByID(context.Background(), notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSent, stored.Status)
	require.NotNil(t, stored.SentAt)
}

func TestNotificationDispatchInAppDeliversImmediately(t *testing.T) {
	svc, repo := newNotificationFixture(nil)

	notification, err := svc.Notify(context.Background(), NotificationEvent{
		UserID:  10,
		Title:   "New review comment",
		Message: "An examiner commented on your thesis submission.",
		Type:    models.NotificationInApp,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Dispatch(context.Background(), notification.ID))

	stored, err := repo.FindByID(context.Background(), notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationDelivered, stored.Status)
	require.NotNil(t, stored.DeliveredAt)
}

func TestNotificationDispatchRecordsFailure(t *testing.T) {
	sender := &failingMailer{err: errors.New("smtp unreachable")}
	svc, repo := newNotificationFixture(sender)

	notification, err := svc.Notify(context.Background(), NotificationEvent{
		UserID:     10,
		ActionType: "appraisal_reviewed",
		Variables:  map[string]string{"academic_year": "2025/26"},
	})
	require.NoError(t, err)

	require.Error(t, svc.Dispatch(context.Background(), notification.ID))

	stored, err := repo.FindByID(context.Background(), notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, "smtp unreachable", *stored.ErrorMessage)
}

func TestNotificationRetryFailedCountsQueued(t *testing.T) {
	sender := &failingMailer{err: errors.New("smtp unreachable")}
	svc, _ := newNotificationFixture(sender)

	notification, err := svc.Notify(context.Background(), NotificationEvent{
		UserID:     10,
		ActionType: "appraisal_reviewed",
		Variables:  map[string]string{"academic_year": "2025/26"},
	})
	require.NoError(t, err)
	require.Error(t, svc.Dispatch(context.Background(), notification.ID))

	queued, err := svc.RetryFailed(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
}

func TestNotificationMarkDelivered(t *testing.T) {
	svc, repo := newNotificationFixture(nil)

	notification, err := svc.Notify(context.Background(), NotificationEvent{
		UserID:     10,
		ActionType: "appraisal_reviewed",
		Variables:  map[string]string{"academic_year": "2025/26"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkDelivered(context.Background(), notification.ID))
	stored, err := repo.FindByID(context.Background(), notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationDelivered, stored.Status)

	err = svc.MarkDelivered(context.Background(), 9999)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
