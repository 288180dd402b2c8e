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

type mockTimelineRepo struct {
	milestones map[int64]models.Timeline
	nextID     int64
}

func (m *mockTimelineRepo) FindByID(ctx context.Context, id int64) (*models.Timeline, error) {
	if t, ok := m.milestones[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTimelineRepo) Create(ctx context.Context, milestone *models.Timeline) error {
	if m.milestones == nil {
		m.milestones = make(map[int64]models.Timeline)
	}
	m.nextID++
	milestone.ID = m.nextID
	m.milestones[milestone.ID] = *milestone
	return nil
}

func (m *mockTimelineRepo) Update(ctx context.Context, milestone *models.Timeline) error {
	m.milestones[milestone.ID] = *milestone
	return nil
}

func (m *mockTimelineRepo) Delete(ctx context.Context, id int64) error {
	delete(m.milestones, id)
	return nil
}

func (m *mockTimelineRepo) List(ctx context.Context, filter models.TimelineFilter) ([]models.Timeline, error) {
	out := make([]models.Timeline, 0, len(m.milestones))
	for _, t := range m.milestones {
		if filter.StudentNumber != "" && t.StudentNumber != filter.StudentNumber {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTimelineRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var changed int64
	for id, t := range m.milestones {
		if t.Status == models.MilestonePending && t.PlannedDate != nil && t.PlannedDate.Before(asOf) {
			t.Status = models.MilestoneOverdue
			m.milestones[id] = t
			changed++
		}
	}
	return changed, nil
}

func newTimelineService(repo *mockTimelineRepo) *TimelineService {
	students := &mockStudentRepo{students: map[string]models.Student{
		"24001234": {StudentNumber: "24001234"},
	}}
	return NewTimelineService(repo, students, nil, nil)
}

func TestTimelineCreateRejectsUnknownStage(t *testing.T) {
	svc := newTimelineService(&mockTimelineRepo{})

	_, err := svc.Create(context.Background(), CreateMilestoneRequest{
		StudentNumber: "24001234",
		Stage:         "interim",
		MilestoneName: "Literature review",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimelineCompleteDefaultsActualDate(t *testing.T) {
	repo := &mockTimelineRepo{}
	svc := newTimelineService(repo)

	milestone, err := svc.Create(context.Background(), CreateMilestoneRequest{
		StudentNumber: "24001234",
		Stage:         "proposal",
		MilestoneName: "Literature review",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MilestonePending, milestone.Status)

	done, err := svc.Complete(context.Background(), studentActor("24001234"), milestone.ID, CompleteMilestoneRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.MilestoneCompleted, done.Status)
	require.NotNil(t, done.ActualDate)
	assert.WithinDuration(t, time.Now().UTC(), *done.ActualDate, time.Minute)
}

func TestTimelineCompleteEnforcesOwnership(t *testing.T) {
	repo := &mockTimelineRepo{}
	svc := newTimelineService(repo)

	milestone, err := svc.Create(context.Background(), CreateMilestoneRequest{
		StudentNumber: "24001234",
		Stage:         "final",
		MilestoneName: "Thesis submission",
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), studentActor("24009999"), milestone.ID, CompleteMilestoneRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestTimelineSweepOverdue(t *testing.T) {
	repo := &mockTimelineRepo{}
	svc := newTimelineService(repo)

	past := time.Now().UTC().AddDate(0, 0, -7)
	future := time.Now().UTC().AddDate(0, 0, 7)
	for _, planned := range []*time.Time{&past, &future, nil} {
		_, err := svc.Create(context.Background(), CreateMilestoneRequest{
			StudentNumber: "24001234",
			Stage:         "progression",
			MilestoneName: "Progress report",
			PlannedDate:   planned,
		})
		require.NoError(t, err)
	}

	changed, err := svc.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)
}

func TestTimelineListPinsStudents(t *testing.T) {
	repo := &mockTimelineRepo{}
	svc := newTimelineService(repo)

	students := &mockStudentRepo{students: map[string]models.Student{
		"24001234": {StudentNumber: "24001234"},
		"24005678": {StudentNumber: "24005678"},
	}}
	full := NewTimelineService(repo, students, nil, nil)

	for _, sn := range []string{"24001234", "24005678"} {
		_, err := full.Create(context.Background(), CreateMilestoneRequest{
			StudentNumber: sn,
			Stage:         "proposal",
			MilestoneName: "Proposal defence",
		})
		require.NoError(t, err)
	}

	milestones, err := svc.List(context.Background(), studentActor("24005678"), models.TimelineFilter{})
	require.NoError(t, err)
	require.Len(t, milestones, 1)
	assert.Equal(t, "24005678", milestones[0].StudentNumber)
}
