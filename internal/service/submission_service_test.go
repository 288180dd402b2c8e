package service

import (
	"context"
	"database/sql"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
)

type mockSubmissionRepo struct {
	submissions map[int64]models.Submission
	nextID      int64
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id int64) (*models.Submission, error) {
	if s, ok := m.submissions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	if m.submissions == nil {
		m.submissions = make(map[int64]models.Submission)
	}
	m.nextID++
	submission.ID = m.nextID
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *mockSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *mockSubmissionRepo) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	out := make([]models.Submission, 0, len(m.submissions))
	for _, s := range m.submissions {
		if filter.StudentNumber != "" && s.StudentNumber != filter.StudentNumber {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockSubmissionRepo) ListPendingReview(ctx context.Context) ([]models.Submission, error) {
	out := make([]models.Submission, 0)
	for _, s := range m.submissions {
		if s.Status == models.SubmissionSubmitted || s.Status == models.SubmissionUnderReview {
			out = append(out, s)
		}
	}
	return out, nil
}

type memFileStore struct {
	saved   map[string]string
	deleted []string
}

func (m *memFileStore) SaveStream(filename string, r io.Reader) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string]string)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.saved[filename] = string(content)
	return filename, nil
}

func (m *memFileStore) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (m *memFileStore) Delete(filename string) error {
	m.deleted = append(m.deleted, filename)
	return nil
}

func newSubmissionService(repo *mockSubmissionRepo) *SubmissionService {
	students := &mockStudentRepo{students: map[string]models.Student{
		"24001234": {StudentNumber: "24001234"},
	}}
	return NewSubmissionService(repo, students, &memFileStore{}, nil, 0, nil, nil)
}

func seedDraft(repo *mockSubmissionRepo, studentNumber string) int64 {
	submission := &models.Submission{
		StudentNumber:  studentNumber,
		SubmissionType: models.SubmissionThesis,
		Title:          "Thesis draft",
		Status:         models.SubmissionDraft,
	}
	_ = repo.Create(context.Background(), submission)
	return submission.ID
}

func TestSubmissionCreateRejectsUnknownType(t *testing.T) {
	svc := newSubmissionService(&mockSubmissionRepo{})

	_, err := svc.Create(context.Background(), staffActor(models.RoleAcademicAdmin), CreateSubmissionRequest{
		StudentNumber:  "24001234",
		SubmissionType: "poster",
		Title:          "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmissionCreateEnforcesOwnership(t *testing.T) {
	svc := newSubmissionService(&mockSubmissionRepo{})

	_, err := svc.Create(context.Background(), studentActor("24009999"), CreateSubmissionRequest{
		StudentNumber:  "24001234",
		SubmissionType: string(models.SubmissionThesis),
		Title:          "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmissionUpdateOnlyInDraft(t *testing.T) {
	repo := &mockSubmissionRepo{}
	id := seedDraft(repo, "24001234")
	svc := newSubmissionService(repo)
	actor := studentActor("24001234")

	updated, err := svc.Update(context.Background(), actor, id, UpdateSubmissionRequest{Title: "Revised title"})
	require.NoError(t, err)
	assert.Equal(t, "Revised title", updated.Title)

	_, err = svc.Submit(context.Background(), actor, id)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), actor, id, UpdateSubmissionRequest{Title: "Too late"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSubmissionNotDraft.Code, appErrors.FromError(err).Code)
}

func TestSubmissionResubmitRestampsDate(t *testing.T) {
	repo := &mockSubmissionRepo{}
	id := seedDraft(repo, "24001234")
	svc := newSubmissionService(repo)
	actor := studentActor("24001234")

	first, err := svc.Submit(context.Background(), actor, id)
	require.NoError(t, err)
	require.NotNil(t, first.SubmissionDate)

	second, err := svc.Submit(context.Background(), actor, id)
	require.NoError(t, err)
	require.NotNil(t, second.SubmissionDate)
	assert.False(t, second.SubmissionDate.Before(*first.SubmissionDate))
	assert.Equal(t, models.SubmissionSubmitted, second.Status)
}

func TestSubmissionReviewDecisions(t *testing.T) {
	repo := &mockSubmissionRepo{}
	id := seedDraft(repo, "24001234")
	svc := newSubmissionService(repo)
	reviewer := staffActor(models.RoleExaminer)

	_, err := svc.Submit(context.Background(), studentActor("24001234"), id)
	require.NoError(t, err)

	underReview, err := svc.StartReview(context.Background(), reviewer, id)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionUnderReview, underReview.Status)
	require.NotNil(t, underReview.ReviewedBy)
	assert.Equal(t, reviewer.UserID, *underReview.ReviewedBy)

	comments := "well argued"
	approved, err := svc.Approve(context.Background(), reviewer, id, ReviewSubmissionRequest{Comments: &comments})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionApproved, approved.Status)
	assert.Equal(t, &comments, approved.ReviewComments)
	require.NotNil(t, approved.ReviewDate)
}

func TestSubmissionAttachFileLimit(t *testing.T) {
	repo := &mockSubmissionRepo{}
	id := seedDraft(repo, "24001234")
	svc := newSubmissionService(repo)

	_, err := svc.AttachFile(context.Background(), studentActor("24001234"), id, UploadedFile{
		Name:    "thesis.pdf",
		Size:    (50 << 20) + 1,
		Content: strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmissionCreateStampsSubmissionDate(t *testing.T) {
	svc := newSubmissionService(&mockSubmissionRepo{})

	created, err := svc.Create(context.Background(), studentActor("24001234"), CreateSubmissionRequest{
		StudentNumber:  "24001234",
		SubmissionType: string(models.SubmissionThesis),
		Title:          "Thesis draft",
	})
	require.NoError(t, err)
	require.NotNil(t, created.SubmissionDate)
	assert.Equal(t, models.SubmissionDraft, created.Status)
}

func TestSubmissionAttachFileStampsSubmissionDate(t *testing.T) {
	repo := &mockSubmissionRepo{}
	id := seedDraft(repo, "24001234")
	svc := newSubmissionService(repo)

	attached, err := svc.AttachFile(context.Background(), studentActor("24001234"), id, UploadedFile{
		Name:     "thesis.pdf",
		Size:     4,
		MimeType: "application/pdf",
		Content:  strings.NewReader("%PDF"),
	})
	require.NoError(t, err)
	require.NotNil(t, attached.SubmissionDate)
	require.NotNil(t, attached.FileName)
	assert.Equal(t, "thesis.pdf", *attached.FileName)
}

func TestSubmissionAttachFileAfterRevisionRequired(t *testing.T) {
	repo := &mockSubmissionRepo{}
	id := seedDraft(repo, "24001234")
	svc := newSubmissionService(repo)
	actor := studentActor("24001234")

	_, err := svc.Submit(context.Background(), actor, id)
	require.NoError(t, err)
	_, err = svc.RequireRevision(context.Background(), staffActor(models.RoleExaminer), id, ReviewSubmissionRequest{})
	require.NoError(t, err)

	revised, err := svc.AttachFile(context.Background(), actor, id, UploadedFile{
		Name:     "thesis-v2.pdf",
		Size:     4,
		MimeType: "application/pdf",
		Content:  strings.NewReader("%PDF"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRevisionRequired, revised.Status)
	require.NotNil(t, revised.FileName)
	assert.Equal(t, "thesis-v2.pdf", *revised.FileName)
}

func TestSubmissionAttachFileEnforcesOwnership(t *testing.T) {
	repo := &mockSubmissionRepo{}
	id := seedDraft(repo, "24001234")
	svc := newSubmissionService(repo)

	_, err := svc.AttachFile(context.Background(), studentActor("24009999"), id, UploadedFile{
		Name:    "thesis.pdf",
		Size:    4,
		Content: strings.NewReader("%PDF"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubmissionStaffUpdateAnyStatus(t *testing.T) {
	repo := &mockSubmissionRepo{}
	id := seedDraft(repo, "24001234")
	svc := newSubmissionService(repo)

	_, err := svc.Submit(context.Background(), studentActor("24001234"), id)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), staffActor(models.RoleSystemAdmin), id, UpdateSubmissionRequest{Title: "Corrected title"})
	require.NoError(t, err)
	assert.Equal(t, "Corrected title", updated.Title)
	assert.Equal(t, models.SubmissionSubmitted, updated.Status)
}

func TestSubmissionListPinsStudents(t *testing.T) {
	repo := &mockSubmissionRepo{}
	seedDraft(repo, "24001234")
	seedDraft(repo, "24005678")
	svc := newSubmissionService(repo)

	submissions, _, err := svc.List(context.Background(), studentActor("24005678"), models.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	assert.Equal(t, "24005678", submissions[0].StudentNumber)
}
