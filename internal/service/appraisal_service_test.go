package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
)

type mockAppraisalRepo struct {
	appraisals map[int64]models.Appraisal
	nextID     int64
}

func (m *mockAppraisalRepo) FindByID(ctx context.Context, id int64) (*models.Appraisal, error) {
	if a, ok := m.appraisals[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAppraisalRepo) Create(ctx context.Context, appraisal *models.Appraisal) error {
	if m.appraisals == nil {
		m.appraisals = make(map[int64]models.Appraisal)
	}
	m.nextID++
	appraisal.ID = m.nextID
	m.appraisals[appraisal.ID] = *appraisal
	return nil
}

func (m *mockAppraisalRepo) Update(ctx context.Context, appraisal *models.Appraisal) error {
	m.appraisals[appraisal.ID] = *appraisal
	return nil
}

func (m *mockAppraisalRepo) List(ctx context.Context, filter models.AppraisalFilter) ([]models.Appraisal, int, error) {
	out := make([]models.Appraisal, 0, len(m.appraisals))
	for _, a := range m.appraisals {
		if filter.StudentNumber != "" && a.StudentNumber != filter.StudentNumber {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *mockAppraisalRepo) CountByStatus(ctx context.Context) ([]models.CountByLabel, error) {
	return nil, nil
}

type mockStudentRepo struct {
	students map[string]models.Student
}

func (m *mockStudentRepo) FindByNumber(ctx context.Context, studentNumber string) (*models.Student, error) {
	if s, ok := m.students[studentNumber]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	m.students[student.StudentNumber] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.StudentNumber] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, studentNumber string) error {
	delete(m.students, studentNumber)
	return nil
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

type mockNotifier struct {
	events []NotificationEvent
}

func (m *mockNotifier) Notify(ctx context.Context, event NotificationEvent) (*models.Notification, error) {
	m.events = append(m.events, event)
	return &models.Notification{ID: int64(len(m.events))}, nil
}

func seedAppraisal(repo *mockAppraisalRepo, studentNumber string) int64 {
	appraisal := &models.Appraisal{StudentNumber: studentNumber, AcademicYear: "2025/26", Status: models.AppraisalPending}
	_ = repo.Create(context.Background(), appraisal)
	return appraisal.ID
}

func studentActor(studentNumber string) models.Actor {
	return models.Actor{UserID: 10, Username: studentNumber, Role: models.RoleStudent}
}

func staffActor(role models.UserRole) models.Actor {
	return models.Actor{UserID: 99, Username: "staff", Role: role}
}

func TestAppraisalSubmitStudentOwnership(t *testing.T) {
	repo := &mockAppraisalRepo{}
	id := seedAppraisal(repo, "24001234")
	svc := NewAppraisalService(repo, &mockStudentRepo{}, nil, nil, nil)

	report := "good progress"
	_, err := svc.SubmitStudent(context.Background(), studentActor("24009999"), id, models.StudentAppraisalFields{ProgressReport: &report})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	result, err := svc.SubmitStudent(context.Background(), studentActor("24001234"), id, models.StudentAppraisalFields{ProgressReport: &report})
	require.NoError(t, err)
	assert.Equal(t, models.AppraisalStudentSubmitted, result.Status)
	assert.NotNil(t, result.StudentSubmissionDate)
	assert.Equal(t, &report, result.StudentProgressReport)
}

func TestAppraisalDoubleSubmitOverwrites(t *testing.T) {
	repo := &mockAppraisalRepo{}
	id := seedAppraisal(repo, "24001234")
	svc := NewAppraisalService(repo, &mockStudentRepo{}, nil, nil, nil)

	first := "first draft"
	second := "second draft"
	actor := studentActor("24001234")

	_, err := svc.SubmitStudent(context.Background(), actor, id, models.StudentAppraisalFields{ProgressReport: &first})
	require.NoError(t, err)

	result, err := svc.SubmitStudent(context.Background(), actor, id, models.StudentAppraisalFields{ProgressReport: &second})
	require.NoError(t, err)
	assert.Equal(t, &second, result.StudentProgressReport)
	assert.Equal(t, models.AppraisalStudentSubmitted, result.Status)
}

func TestAppraisalSubmitDOSRecordsAssessment(t *testing.T) {
	repo := &mockAppraisalRepo{}
	id := seedAppraisal(repo, "24001234")
	notify := &mockNotifier{}
	svc := NewAppraisalService(repo, &mockStudentRepo{}, notify, nil, nil)

	rating := "good"
	result, err := svc.SubmitDOS(context.Background(), staffActor(models.RoleDOS), id, models.DOSAppraisalFields{ProgressRating: &rating})
	require.NoError(t, err)
	assert.Equal(t, models.AppraisalDOSSubmitted, result.Status)
	assert.NotNil(t, result.DOSSubmissionDate)
	require.Len(t, notify.events, 1)
	assert.Equal(t, "appraisal_dos_submitted", notify.events[0].ActionType)
}

func TestAppraisalSubmitDOSRejectsUnknownRating(t *testing.T) {
	repo := &mockAppraisalRepo{}
	id := seedAppraisal(repo, "24001234")
	svc := NewAppraisalService(repo, &mockStudentRepo{}, nil, nil, nil)

	rating := "stellar"
	_, err := svc.SubmitDOS(context.Background(), staffActor(models.RoleDOS), id, models.DOSAppraisalFields{ProgressRating: &rating})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAppraisalReviewAndApprove(t *testing.T) {
	repo := &mockAppraisalRepo{}
	id := seedAppraisal(repo, "24001234")
	svc := NewAppraisalService(repo, &mockStudentRepo{}, nil, nil, nil)
	reviewer := staffActor(models.RoleGBOSAdmin)

	comments := "looks thorough"
	reviewed, err := svc.Review(context.Background(), reviewer, id, ReviewAppraisalRequest{ReviewerComments: &comments})
	require.NoError(t, err)
	assert.Equal(t, models.AppraisalUnderReview, reviewed.Status)
	require.NotNil(t, reviewed.ReviewerID)
	assert.Equal(t, reviewer.UserID, *reviewed.ReviewerID)

	desc := "revise chapter 2"
	approved, err := svc.Approve(context.Background(), reviewer, id, ApproveAppraisalRequest{
		Outcome:           "resubmission_required",
		ActionRequired:    true,
		ActionDescription: &desc,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppraisalResubmissionRequired, approved.Status)
	assert.True(t, approved.ActionRequired)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, reviewer.UserID, *approved.ApprovedBy)
}

func TestAppraisalApproveRejectsUnknownOutcome(t *testing.T) {
	repo := &mockAppraisalRepo{}
	id := seedAppraisal(repo, "24001234")
	svc := NewAppraisalService(repo, &mockStudentRepo{}, nil, nil, nil)

	_, err := svc.Approve(context.Background(), staffActor(models.RoleGBOSAdmin), id, ApproveAppraisalRequest{Outcome: "maybe"})
	require.Error(t, err)
}

func TestAppraisalListPinsStudentsToOwnRecords(t *testing.T) {
	repo := &mockAppraisalRepo{}
	seedAppraisal(repo, "24001234")
	seedAppraisal(repo, "24005678")
	svc := NewAppraisalService(repo, &mockStudentRepo{}, nil, nil, nil)

	appraisals, _, err := svc.List(context.Background(), studentActor("24001234"), models.AppraisalFilter{})
	require.NoError(t, err)
	require.Len(t, appraisals, 1)
	assert.Equal(t, "24001234", appraisals[0].StudentNumber)
}
