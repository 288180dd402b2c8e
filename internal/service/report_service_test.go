package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
)

type mockReportRepo struct {
	countCalls int
}

func (m *mockReportRepo) CountStudents(ctx context.Context) (int, error) {
	m.countCalls++
	return 42, nil
}

func (m *mockReportRepo) StudentsByProgramme(ctx context.Context) ([]models.CountByLabel, error) {
	return []models.CountByLabel{{Label: "PhD Computer Science", Count: 30}, {Label: "MPhil History", Count: 12}}, nil
}

func (m *mockReportRepo) StudentsByMode(ctx context.Context) ([]models.CountByLabel, error) {
	return []models.CountByLabel{{Label: "full-time", Count: 35}, {Label: "part-time", Count: 7}}, nil
}

func (m *mockReportRepo) StudentsByRegistrationStatus(ctx context.Context) ([]models.CountByLabel, error) {
	return []models.CountByLabel{{Label: "registered", Count: 40}, {Label: "suspended", Count: 2}}, nil
}

func (m *mockReportRepo) SupervisorWorkload(ctx context.Context) ([]models.SupervisorWorkload, error) {
	return []models.SupervisorWorkload{
		{SupervisorID: 1, SupervisorName: "Prof. Grace Hopper", StudentCount: 4},
		{SupervisorID: 2, SupervisorName: "Dr. Tony Hoare", StudentCount: 3},
	}, nil
}

func (m *mockReportRepo) TimelineCompliance(ctx context.Context) (*models.TimelineComplianceReport, error) {
	return &models.TimelineComplianceReport{
		TotalMilestones: 10,
		CompletedOnTime: 6,
		CompletedLate:   1,
		Overdue:         2,
		Pending:         1,
	}, nil
}

func (m *mockReportRepo) CountAppraisalsRequiringAction(ctx context.Context) (int, error) {
	return 5, nil
}

type mockCountSource struct {
	byStatus []models.CountByLabel
	byType   []models.CountByLabel
}

func (m *mockCountSource) CountByStatus(ctx context.Context) ([]models.CountByLabel, error) {
	return m.byStatus, nil
}

func (m *mockCountSource) CountByType(ctx context.Context) ([]models.CountByLabel, error) {
	return m.byType, nil
}

type memCacheStore struct {
	entries map[string][]byte
}

func (m *memCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memCacheStore) DeleteByPattern(ctx context.Context, pattern string) error {
	return nil
}

func newReportFixture() (*ReportService, *mockReportRepo) {
	repo := &mockReportRepo{}
	appraisals := &mockCountSource{byStatus: []models.CountByLabel{
		{Label: "PENDING", Count: 8},
		{Label: "COMPLETED", Count: 20},
	}}
	submissions := &mockCountSource{
		byStatus: []models.CountByLabel{{Label: "submitted", Count: 9}, {Label: "approved", Count: 6}},
		byType:   []models.CountByLabel{{Label: "thesis", Count: 10}, {Label: "progress_report", Count: 5}},
	}
	cache := NewCacheService(&memCacheStore{entries: make(map[string][]byte)}, nil, time.Minute, nil, true)
	return NewReportService(repo, appraisals, submissions, cache, time.Minute, nil), repo
}

func TestStudentOverviewAggregatesAndCaches(t *testing.T) {
	svc, repo := newReportFixture()

	first, err := svc.StudentOverview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, first.TotalStudents)
	assert.Len(t, first.ByProgramme, 2)

	second, err := svc.StudentOverview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.TotalStudents, second.TotalStudents)
	assert.Equal(t, 1, repo.countCalls)
}

func TestSupervisorWorkloadsSumsAssignments(t *testing.T) {
	svc, _ := newReportFixture()

	report, err := svc.SupervisorWorkloads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, report.TotalAssignments)
	assert.Len(t, report.Workload, 2)
}

func TestSubmissionAnalyticsTotalsByType(t *testing.T) {
	svc, _ := newReportFixture()

	report, err := svc.SubmissionAnalytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, report.TotalSubmissions)
}

func TestAppraisalSummaryCountsActionRequired(t *testing.T) {
	svc, _ := newReportFixture()

	report, err := svc.AppraisalSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 28, report.TotalAppraisals)
	assert.Equal(t, 5, report.ActionRequired)
}

func TestExportRendersCSV(t *testing.T) {
	svc, _ := newReportFixture()

	result, err := svc.Export(context.Background(), "supervisor-workload", models.ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.FileName, ".csv"))

	body := string(result.Content)
	assert.Contains(t, body, "supervisor,students")
	assert.Contains(t, body, "Prof. Grace Hopper,4")
}

func TestExportRendersPDF(t *testing.T) {
	svc, _ := newReportFixture()

	result, err := svc.Export(context.Background(), "timeline-compliance", models.ReportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.FileName, ".pdf"))
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportRejectsUnknownReport(t *testing.T) {
	svc, _ := newReportFixture()

	_, err := svc.Export(context.Background(), "budget-forecast", models.ReportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc, _ := newReportFixture()

	_, err := svc.Export(context.Background(), "student-overview", models.ReportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
