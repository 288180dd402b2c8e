package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
)

type mockVivaRepo struct {
	teams  map[int64]models.VivaTeam
	nextID int64
}

func (m *mockVivaRepo) FindByID(ctx context.Context, id int64) (*models.VivaTeam, error) {
	if t, ok := m.teams[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockVivaRepo) Create(ctx context.Context, team *models.VivaTeam) error {
	if m.teams == nil {
		m.teams = make(map[int64]models.VivaTeam)
	}
	m.nextID++
	team.ID = m.nextID
	m.teams[team.ID] = *team
	return nil
}

func (m *mockVivaRepo) Update(ctx context.Context, team *models.VivaTeam) error {
	m.teams[team.ID] = *team
	return nil
}

func (m *mockVivaRepo) List(ctx context.Context, filter models.VivaTeamFilter) ([]models.VivaTeam, int, error) {
	out := make([]models.VivaTeam, 0, len(m.teams))
	for _, t := range m.teams {
		if filter.StudentNumber != "" && t.StudentNumber != filter.StudentNumber {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

type mockSupervisorLookup struct {
	ids map[int64]bool
}

func (m *mockSupervisorLookup) FindByID(ctx context.Context, id int64) (*models.Supervisor, error) {
	if m.ids[id] {
		return &models.Supervisor{SupervisorID: id}, nil
	}
	return nil, sql.ErrNoRows
}

func newVivaService(repo *mockVivaRepo, notify *mockNotifier) *VivaService {
	students := &mockStudentRepo{students: map[string]models.Student{
		"24001234": {StudentNumber: "24001234"},
	}}
	supervisors := &mockSupervisorLookup{ids: map[int64]bool{7: true, 8: true}}
	var n notifier
	if notify != nil {
		n = notify
	}
	return NewVivaService(repo, students, supervisors, n, nil, nil)
}

func TestVivaProposeNormalisesZeroExaminer(t *testing.T) {
	repo := &mockVivaRepo{}
	svc := newVivaService(repo, nil)

	team, err := svc.Propose(context.Background(), staffActor(models.RoleDOS), ProposeVivaTeamRequest{
		StudentNumber:       "24001234",
		Stage:               string(models.VivaStageFinal),
		InternalExaminer1ID: 7,
		InternalExaminer2ID: 0,
	})
	require.NoError(t, err)
	require.NotNil(t, team.InternalExaminer1ID)
	assert.EqualValues(t, 7, *team.InternalExaminer1ID)
	assert.Nil(t, team.InternalExaminer2ID)
	assert.Equal(t, models.VivaProposed, team.Status)
	require.NotNil(t, team.ProposedBy)
}

func TestVivaProposeUnknownExaminer(t *testing.T) {
	svc := newVivaService(&mockVivaRepo{}, nil)

	_, err := svc.Propose(context.Background(), staffActor(models.RoleDOS), ProposeVivaTeamRequest{
		StudentNumber:       "24001234",
		Stage:               string(models.VivaStageFinal),
		InternalExaminer1ID: 42,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestVivaScheduleRequiresApproval(t *testing.T) {
	repo := &mockVivaRepo{}
	svc := newVivaService(repo, nil)

	team, err := svc.Propose(context.Background(), staffActor(models.RoleDOS), ProposeVivaTeamRequest{
		StudentNumber: "24001234",
		Stage:         string(models.VivaStageProgression),
	})
	require.NoError(t, err)

	_, err = svc.Schedule(context.Background(), staffActor(models.RoleGBOSAdmin), team.ID, ScheduleVivaRequest{
		ScheduledDate: time.Now().AddDate(0, 1, 0),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrVivaNotApproved.Code, appErrors.FromError(err).Code)

	_, err = svc.Approve(context.Background(), staffActor(models.RoleGBOSApprover), team.ID)
	require.NoError(t, err)

	scheduled, err := svc.Schedule(context.Background(), staffActor(models.RoleGBOSAdmin), team.ID, ScheduleVivaRequest{
		ScheduledDate: time.Now().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.VivaScheduled, scheduled.Status)

	// Rebooking an already scheduled viva is allowed.
	rescheduled, err := svc.Schedule(context.Background(), staffActor(models.RoleGBOSAdmin), team.ID, ScheduleVivaRequest{
		ScheduledDate: time.Now().AddDate(0, 2, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.VivaScheduled, rescheduled.Status)
}

func TestVivaRejectPersistsReason(t *testing.T) {
	repo := &mockVivaRepo{}
	notify := &mockNotifier{}
	svc := newVivaService(repo, notify)

	team, err := svc.Propose(context.Background(), staffActor(models.RoleDOS), ProposeVivaTeamRequest{
		StudentNumber: "24001234",
		Stage:         string(models.VivaStageFinal),
	})
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), staffActor(models.RoleGBOSApprover), team.ID, RejectVivaTeamRequest{
		Reason: "external examiner conflict of interest",
	})
	require.NoError(t, err)
	assert.Equal(t, models.VivaRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "external examiner conflict of interest", *rejected.RejectionReason)

	last := notify.events[len(notify.events)-1]
	assert.Equal(t, "viva_team_rejected", last.ActionType)
	assert.Equal(t, "external examiner conflict of interest", last.Variables["reason"])
}

func TestVivaApproveScheduledRestamps(t *testing.T) {
	repo := &mockVivaRepo{}
	svc := newVivaService(repo, nil)
	approver := staffActor(models.RoleGBOSApprover)

	team, err := svc.Propose(context.Background(), staffActor(models.RoleDOS), ProposeVivaTeamRequest{
		StudentNumber: "24001234",
		Stage:         string(models.VivaStageFinal),
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), approver, team.ID)
	require.NoError(t, err)
	_, err = svc.Schedule(context.Background(), staffActor(models.RoleGBOSAdmin), team.ID, ScheduleVivaRequest{
		ScheduledDate: time.Now().AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	again, err := svc.Approve(context.Background(), approver, team.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VivaApproved, again.Status)
	require.NotNil(t, again.ApprovedBy)
	assert.Equal(t, approver.UserID, *again.ApprovedBy)
}

func TestVivaRecordOutcome(t *testing.T) {
	repo := &mockVivaRepo{}
	svc := newVivaService(repo, nil)

	team, err := svc.Propose(context.Background(), staffActor(models.RoleDOS), ProposeVivaTeamRequest{
		StudentNumber: "24001234",
		Stage:         string(models.VivaStageFinal),
	})
	require.NoError(t, err)

	notes := "minor corrections within three months"
	done, err := svc.RecordOutcome(context.Background(), staffActor(models.RoleExaminer), team.ID, VivaOutcomeRequest{
		Outcome:      "pass_with_minor_corrections",
		OutcomeNotes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, models.VivaCompleted, done.Status)
	require.NotNil(t, done.Outcome)
	assert.Equal(t, "pass_with_minor_corrections", *done.Outcome)
	require.NotNil(t, done.ActualDate)
}
