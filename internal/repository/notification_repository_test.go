package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

func TestNotificationRepositoryMarkFailedBumpsRetryCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET status = $2, error_message = $3, retry_count = retry_count + 1, updated_at = $4 WHERE id = $1")).
		WithArgs(int64(7), models.NotificationFailed, "smtp timeout", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkFailed(context.Background(), 7, "smtp timeout")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkSentClearsError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	sentAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET status = $2, sent_at = $3, error_message = NULL, updated_at = $3 WHERE id = $1")).
		WithArgs(int64(7), models.NotificationSent, sentAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSent(context.Background(), 7, sentAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListRetryable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "type", "title", "message", "action_type", "status", "retry_count", "max_retries"}).
		AddRow(1, 4, models.NotificationEmail, "Appraisal submitted", "body", "appraisal_submitted", models.NotificationFailed, 1, 3)
	mock.ExpectQuery("SELECT \\* FROM notifications WHERE status = \\$1 AND retry_count < max_retries").
		WithArgs(models.NotificationFailed).
		WillReturnRows(rows)

	notifications, err := repo.ListRetryable(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, 1, notifications[0].RetryCount)
	require.NoError(t, mock.ExpectationsWereMet())
}
