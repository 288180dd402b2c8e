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

func TestTimelineRepositoryMarkOverdue(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimelineRepository(db)

	asOf := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timelines SET status = $1 WHERE status = $2 AND planned_date IS NOT NULL AND planned_date < $3")).
		WithArgs(models.MilestoneOverdue, models.MilestonePending, asOf).
		WillReturnResult(sqlmock.NewResult(0, 3))

	changed, err := repo.MarkOverdue(context.Background(), asOf)
	require.NoError(t, err)
	require.EqualValues(t, 3, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineRepositoryListByStage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimelineRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_number", "stage", "milestone_name", "status"}).
		AddRow(1, "24001234", models.TimelineStageProposal, "Proposal hand-in", models.MilestonePending)
	mock.ExpectQuery("SELECT \\* FROM timelines WHERE 1=1 AND student_number = \\$1 AND stage = \\$2").
		WithArgs("24001234", "proposal").
		WillReturnRows(rows)

	milestones, err := repo.List(context.Background(), models.TimelineFilter{StudentNumber: "24001234", Stage: "proposal"})
	require.NoError(t, err)
	require.Len(t, milestones, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
