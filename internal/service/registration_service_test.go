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

type mockRegistrationRepo struct {
	registrations map[int64]models.Registration
	nextID        int64
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, id int64) (*models.Registration, error) {
	if r, ok := m.registrations[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) ExistsByStudent(ctx context.Context, studentNumber string) (bool, error) {
	for _, r := range m.registrations {
		if r.StudentNumber == studentNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRegistrationRepo) Create(ctx context.Context, registration *models.Registration) error {
	if m.registrations == nil {
		m.registrations = make(map[int64]models.Registration)
	}
	m.nextID++
	registration.RegistrationID = m.nextID
	m.registrations[registration.RegistrationID] = *registration
	return nil
}

func (m *mockRegistrationRepo) Update(ctx context.Context, registration *models.Registration) error {
	m.registrations[registration.RegistrationID] = *registration
	return nil
}

func (m *mockRegistrationRepo) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	out := make([]models.Registration, 0, len(m.registrations))
	for _, r := range m.registrations {
		out = append(out, r)
	}
	return out, len(out), nil
}

func newRegistrationService(repo *mockRegistrationRepo, notify *mockNotifier) *RegistrationService {
	students := &mockStudentRepo{students: map[string]models.Student{
		"24001234": {StudentNumber: "24001234"},
	}}
	var n notifier
	if notify != nil {
		n = notify
	}
	return NewRegistrationService(repo, students, n, nil, nil)
}

func TestRegistrationCreateRejectsDuplicate(t *testing.T) {
	repo := &mockRegistrationRepo{}
	svc := newRegistrationService(repo, nil)

	_, err := svc.Create(context.Background(), CreateRegistrationRequest{StudentNumber: "24001234"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateRegistrationRequest{StudentNumber: "24001234"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRegistrationExists.Code, appErrors.FromError(err).Code)
}

func TestRegistrationCreateUnknownStudent(t *testing.T) {
	svc := newRegistrationService(&mockRegistrationRepo{}, nil)

	_, err := svc.Create(context.Background(), CreateRegistrationRequest{StudentNumber: "24009999"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationGetEnforcesOwnership(t *testing.T) {
	repo := &mockRegistrationRepo{}
	svc := newRegistrationService(repo, nil)

	created, err := svc.Create(context.Background(), CreateRegistrationRequest{StudentNumber: "24001234"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), studentActor("24009999"), created.RegistrationID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	got, err := svc.Get(context.Background(), studentActor("24001234"), created.RegistrationID)
	require.NoError(t, err)
	assert.Equal(t, "24001234", got.StudentNumber)
}

func TestRegistrationExtensionFlow(t *testing.T) {
	repo := &mockRegistrationRepo{}
	notify := &mockNotifier{}
	svc := newRegistrationService(repo, notify)

	deadline := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	created, err := svc.Create(context.Background(), CreateRegistrationRequest{
		StudentNumber:                "24001234",
		OriginalRegistrationDeadline: &deadline,
	})
	require.NoError(t, err)

	requested, err := svc.RequestExtension(context.Background(), studentActor("24001234"), created.RegistrationID)
	require.NoError(t, err)
	require.NotNil(t, requested.RegistrationExtensionRequestDate)

	approved, err := svc.ApproveExtension(context.Background(), staffActor(models.RoleAcademicAdmin), created.RegistrationID, ApproveExtensionRequest{
		ExtensionLengthDays: 90,
	})
	require.NoError(t, err)
	require.NotNil(t, approved.DateOfExtensionApproval)
	require.NotNil(t, approved.RegistrationExtensionLengthDays)
	assert.Equal(t, 90, *approved.RegistrationExtensionLengthDays)
	require.NotNil(t, approved.RevisedRegistrationDeadline)
	assert.Equal(t, deadline.AddDate(0, 0, 90), *approved.RevisedRegistrationDeadline)

	require.Len(t, notify.events, 2)
	assert.Equal(t, "extension_requested", notify.events[0].ActionType)
	assert.Equal(t, "extension_approved", notify.events[1].ActionType)
	assert.Equal(t, "90", notify.events[1].Variables["days"])
}

func TestRegistrationExtensionWithoutDeadline(t *testing.T) {
	repo := &mockRegistrationRepo{}
	svc := newRegistrationService(repo, nil)

	created, err := svc.Create(context.Background(), CreateRegistrationRequest{StudentNumber: "24001234"})
	require.NoError(t, err)

	approved, err := svc.ApproveExtension(context.Background(), staffActor(models.RoleAcademicAdmin), created.RegistrationID, ApproveExtensionRequest{
		ExtensionLengthDays: 30,
	})
	require.NoError(t, err)
	assert.Nil(t, approved.RevisedRegistrationDeadline)
	require.NotNil(t, approved.RegistrationExtensionLengthDays)
}

func TestRegistrationApproveExtensionValidatesLength(t *testing.T) {
	repo := &mockRegistrationRepo{}
	svc := newRegistrationService(repo, nil)

	created, err := svc.Create(context.Background(), CreateRegistrationRequest{StudentNumber: "24001234"})
	require.NoError(t, err)

	_, err = svc.ApproveExtension(context.Background(), staffActor(models.RoleAcademicAdmin), created.RegistrationID, ApproveExtensionRequest{
		ExtensionLengthDays: 0,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
