package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
	"github.com/noah-isme/pgr-adp-api/pkg/export"
)

type reportRepository interface {
	CountStudents(ctx context.Context) (int, error)
	StudentsByProgramme(ctx context.Context) ([]models.CountByLabel, error)
	StudentsByMode(ctx context.Context) ([]models.CountByLabel, error)
	StudentsByRegistrationStatus(ctx context.Context) ([]models.CountByLabel, error)
	SupervisorWorkload(ctx context.Context) ([]models.SupervisorWorkload, error)
	TimelineCompliance(ctx context.Context) (*models.TimelineComplianceReport, error)
	CountAppraisalsRequiringAction(ctx context.Context) (int, error)
}

type reportAppraisalSource interface {
	CountByStatus(ctx context.Context) ([]models.CountByLabel, error)
}

type reportSubmissionSource interface {
	CountByStatus(ctx context.Context) ([]models.CountByLabel, error)
	CountByType(ctx context.Context) ([]models.CountByLabel, error)
}

// ReportExport is a rendered report ready for download.
type ReportExport struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ReportService aggregates reporting queries, caches the results in Redis
// and renders CSV/PDF exports.
type ReportService struct {
	repo        reportRepository
	appraisals  reportAppraisalSource
	submissions reportSubmissionSource
	cache       *CacheService
	cacheTTL    time.Duration
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewReportService constructs the report service. cache may be nil to
// disable caching.
func NewReportService(repo reportRepository, appraisals reportAppraisalSource, submissions reportSubmissionSource, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ReportService{
		repo:        repo,
		appraisals:  appraisals,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    cacheTTL,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// StudentOverview summarises the student population.
func (s *ReportService) StudentOverview(ctx context.Context) (*models.StudentOverviewReport, error) {
	var cached models.StudentOverviewReport
	if s.fromCache(ctx, "reports:student-overview", &cached) {
		return &cached, nil
	}

	total, err := s.repo.CountStudents(ctx)
	if err != nil {
		return nil, s.wrap(err, "failed to count students")
	}
	byProgramme, err := s.repo.StudentsByProgramme(ctx)
	if err != nil {
		return nil, s.wrap(err, "failed to group students by programme")
	}
	byMode, err := s.repo.StudentsByMode(ctx)
	if err != nil {
		return nil, s.wrap(err, "failed to group students by mode")
	}
	byStatus, err := s.repo.StudentsByRegistrationStatus(ctx)
	if err != nil {
		return nil, s.wrap(err, "failed to group students by registration status")
	}

	report := &models.StudentOverviewReport{
		TotalStudents: total,
		ByProgramme:   byProgramme,
		ByMode:        byMode,
		ByStatus:      byStatus,
		GeneratedAt:   time.Now().UTC(),
	}
	s.toCache(ctx, "reports:student-overview", report)
	return report, nil
}

// SupervisorWorkloads summarises active supervision assignments.
func (s *ReportService) SupervisorWorkloads(ctx context.Context) (*models.SupervisorWorkloadReport, error) {
	var cached models.SupervisorWorkloadReport
	if s.fromCache(ctx, "reports:supervisor-workload", &cached) {
		return &cached, nil
	}

	workload, err := s.repo.SupervisorWorkload(ctx)
	if err != nil {
		return nil, s.wrap(err, "failed to compute supervisor workload")
	}
	total := 0
	for _, w := range workload {
		total += w.StudentCount
	}

	report := &models.SupervisorWorkloadReport{
		TotalAssignments: total,
		Workload:         workload,
		GeneratedAt:      time.Now().UTC(),
	}
	s.toCache(ctx, "reports:supervisor-workload", report)
	return report, nil
}

// SubmissionAnalytics groups submissions by type and status.
func (s *ReportService) SubmissionAnalytics(ctx context.Context) (*models.SubmissionAnalyticsReport, error) {
	var cached models.SubmissionAnalyticsReport
	if s.fromCache(ctx, "reports:submission-analytics", &cached) {
		return &cached, nil
	}

	byType, err := s.submissions.CountByType(ctx)
	if err != nil {
		return nil, s.wrap(err, "failed to group submissions by type")
	}
	byStatus, err := s.submissions.CountByStatus(ctx)
	if err != nil {
		return nil, s.wrap(err, "failed to group submissions by status")
	}
	total := 0
	for _, c := range byType {
		total += c.Count
	}

	report := &models.SubmissionAnalyticsReport{
		TotalSubmissions: total,
		ByType:           byType,
		ByStatus:         byStatus,
		GeneratedAt:      time.Now().UTC(),
	}
	s.toCache(ctx, "reports:submission-analytics", report)
	return report, nil
}

// TimelineCompliance measures milestone completion against plan.
func (s *ReportService) TimelineCompliance(ctx context.Context) (*models.TimelineComplianceReport, error) {
	var cached models.TimelineComplianceReport
	if s.fromCache(ctx, "reports:timeline-compliance", &cached) {
		return &cached, nil
	}

	report, err := s.repo.TimelineCompliance(ctx)
	if err != nil {
		return nil, s.wrap(err, "failed to compute timeline compliance")
	}
	report.GeneratedAt = time.Now().UTC()
	s.toCache(ctx, "reports:timeline-compliance", report)
	return report, nil
}

// AppraisalSummary groups appraisals by workflow status.
func (s *ReportService) AppraisalSummary(ctx context.Context) (*models.AppraisalSummaryReport, error) {
	var cached models.AppraisalSummaryReport
	if s.fromCache(ctx, "reports:appraisal-summary", &cached) {
		return &cached, nil
	}

	byStatus, err := s.appraisals.CountByStatus(ctx)
	if err != nil {
		return nil, s.wrap(err, "failed to group appraisals by status")
	}
	actionRequired, err := s.repo.CountAppraisalsRequiringAction(ctx)
	if err != nil {
		return nil, s.wrap(err, "failed to count appraisals requiring action")
	}
	total := 0
	for _, c := range byStatus {
		total += c.Count
	}

	report := &models.AppraisalSummaryReport{
		TotalAppraisals: total,
		ByStatus:        byStatus,
		ActionRequired:  actionRequired,
		GeneratedAt:     time.Now().UTC(),
	}
	s.toCache(ctx, "reports:appraisal-summary", report)
	return report, nil
}

// Export renders a named report in the requested format.
func (s *ReportService) Export(ctx context.Context, name string, format models.ReportFormat) (*ReportExport, error) {
	dataset, title, err := s.dataset(ctx, name)
	if err != nil {
		return nil, err
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case models.ReportFormatCSV:
		content, err := s.csv.Render(*dataset)
		if err != nil {
			return nil, s.wrap(err, "failed to render csv")
		}
		return &ReportExport{
			FileName:    fmt.Sprintf("%s-%s.csv", name, stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case models.ReportFormatPDF:
		content, err := s.pdf.Render(*dataset, title)
		if err != nil {
			return nil, s.wrap(err, "failed to render pdf")
		}
		return &ReportExport{
			FileName:    fmt.Sprintf("%s-%s.pdf", name, stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ReportService) dataset(ctx context.Context, name string) (*export.Dataset, string, error) {
	switch name {
	case "student-overview":
		report, err := s.StudentOverview(ctx)
		if err != nil {
			return nil, "", err
		}
		return countDataset("programme", report.ByProgramme), "Student Overview", nil
	case "supervisor-workload":
		report, err := s.SupervisorWorkloads(ctx)
		if err != nil {
			return nil, "", err
		}
		dataset := &export.Dataset{Headers: []string{"supervisor", "students"}}
		for _, w := range report.Workload {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"supervisor": w.SupervisorName,
				"students":   strconv.Itoa(w.StudentCount),
			})
		}
		return dataset, "Supervisor Workload", nil
	case "submission-analytics":
		report, err := s.SubmissionAnalytics(ctx)
		if err != nil {
			return nil, "", err
		}
		return countDataset("status", report.ByStatus), "Submission Analytics", nil
	case "timeline-compliance":
		report, err := s.TimelineCompliance(ctx)
		if err != nil {
			return nil, "", err
		}
		dataset := &export.Dataset{
			Headers: []string{"measure", "count"},
			Rows: []map[string]string{
				{"measure": "total", "count": strconv.Itoa(report.TotalMilestones)},
				{"measure": "completed_on_time", "count": strconv.Itoa(report.CompletedOnTime)},
				{"measure": "completed_late", "count": strconv.Itoa(report.CompletedLate)},
				{"measure": "overdue", "count": strconv.Itoa(report.Overdue)},
				{"measure": "pending", "count": strconv.Itoa(report.Pending)},
			},
		}
		return dataset, "Timeline Compliance", nil
	case "appraisal-summary":
		report, err := s.AppraisalSummary(ctx)
		if err != nil {
			return nil, "", err
		}
		return countDataset("status", report.ByStatus), "Appraisal Summary", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown report %q", name))
	}
}

func countDataset(label string, counts []models.CountByLabel) *export.Dataset {
	dataset := &export.Dataset{Headers: []string{label, "count"}}
	for _, c := range counts {
		dataset.Rows = append(dataset.Rows, map[string]string{
			label:   c.Label,
			"count": strconv.Itoa(c.Count),
		})
	}
	return dataset
}

func (s *ReportService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, _ := s.cache.Get(ctx, key, dest)
	return hit
}

func (s *ReportService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, value, s.cacheTTL)
}

func (s *ReportService) wrap(err error, msg string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
}
