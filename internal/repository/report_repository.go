package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

// ReportRepository runs the aggregate queries behind the reporting
// endpoints. Report shaping and caching live in the service layer.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CountStudents returns the total student population.
func (r *ReportRepository) CountStudents(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// StudentsByProgramme groups students by programme of study.
func (r *ReportRepository) StudentsByProgramme(ctx context.Context) ([]models.CountByLabel, error) {
	const query = `SELECT COALESCE(programme_of_study, 'unknown') AS label, COUNT(*) AS count
        FROM students GROUP BY programme_of_study ORDER BY count DESC`
	var counts []models.CountByLabel
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("students by programme: %w", err)
	}
	return counts, nil
}

// StudentsByMode groups students by study mode.
func (r *ReportRepository) StudentsByMode(ctx context.Context) ([]models.CountByLabel, error) {
	const query = `SELECT COALESCE(mode, 'unknown') AS label, COUNT(*) AS count
        FROM students GROUP BY mode ORDER BY count DESC`
	var counts []models.CountByLabel
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("students by mode: %w", err)
	}
	return counts, nil
}

// StudentsByRegistrationStatus groups students by their registration status.
func (r *ReportRepository) StudentsByRegistrationStatus(ctx context.Context) ([]models.CountByLabel, error) {
	const query = `SELECT COALESCE(reg.registration_status, 'unregistered') AS label, COUNT(*) AS count
        FROM students s LEFT JOIN registrations reg ON reg.student_number = s.student_number
        GROUP BY reg.registration_status ORDER BY count DESC`
	var counts []models.CountByLabel
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("students by registration status: %w", err)
	}
	return counts, nil
}

// SupervisorWorkload counts active supervision assignments per supervisor.
func (r *ReportRepository) SupervisorWorkload(ctx context.Context) ([]models.SupervisorWorkload, error) {
	const query = `SELECT sv.supervisor_id, sv.supervisor_name, COUNT(ss.student_supervisor_id) AS student_count
        FROM supervisors sv
        LEFT JOIN student_supervisors ss ON ss.supervisor_id = sv.supervisor_id AND ss.end_date IS NULL
        GROUP BY sv.supervisor_id, sv.supervisor_name
        ORDER BY student_count DESC, sv.supervisor_name ASC`
	var workload []models.SupervisorWorkload
	if err := r.db.SelectContext(ctx, &workload, query); err != nil {
		return nil, fmt.Errorf("supervisor workload: %w", err)
	}
	return workload, nil
}

// TimelineCompliance computes milestone completion buckets.
func (r *ReportRepository) TimelineCompliance(ctx context.Context) (*models.TimelineComplianceReport, error) {
	const query = `SELECT
        COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'completed' AND (planned_date IS NULL OR actual_date <= planned_date)) AS on_time,
        COUNT(*) FILTER (WHERE status = 'completed' AND planned_date IS NOT NULL AND actual_date > planned_date) AS late,
        COUNT(*) FILTER (WHERE status = 'overdue') AS overdue,
        COUNT(*) FILTER (WHERE status = 'pending') AS pending
        FROM timelines`
	var row struct {
		Total   int `db:"total"`
		OnTime  int `db:"on_time"`
		Late    int `db:"late"`
		Overdue int `db:"overdue"`
		Pending int `db:"pending"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("timeline compliance: %w", err)
	}
	return &models.TimelineComplianceReport{
		TotalMilestones: row.Total,
		CompletedOnTime: row.OnTime,
		CompletedLate:   row.Late,
		Overdue:         row.Overdue,
		Pending:         row.Pending,
	}, nil
}

// CountAppraisalsRequiringAction counts appraisals flagged for follow-up.
func (r *ReportRepository) CountAppraisalsRequiringAction(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM appraisals WHERE action_required = true`); err != nil {
		return 0, fmt.Errorf("count appraisals requiring action: %w", err)
	}
	return total, nil
}
