package models

import "time"

// CountByLabel is one bucket of a grouped count.
type CountByLabel struct {
	Label string `db:"label" json:"label"`
	Count int    `db:"count" json:"count"`
}

// StudentOverviewReport summarises the registered student population.
type StudentOverviewReport struct {
	TotalStudents int            `json:"total_students"`
	ByProgramme   []CountByLabel `json:"by_programme"`
	ByMode        []CountByLabel `json:"by_mode"`
	ByStatus      []CountByLabel `json:"by_status"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

// SupervisorWorkloadReport summarises active supervision assignments.
type SupervisorWorkloadReport struct {
	TotalAssignments int                  `json:"total_assignments"`
	Workload         []SupervisorWorkload `json:"workload"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// SupervisorWorkload is the per-supervisor slice of the workload report.
type SupervisorWorkload struct {
	SupervisorID   int64  `db:"supervisor_id" json:"supervisor_id"`
	SupervisorName string `db:"supervisor_name" json:"supervisor_name"`
	StudentCount   int    `db:"student_count" json:"student_count"`
}

// SubmissionAnalyticsReport groups submissions by type and review status.
type SubmissionAnalyticsReport struct {
	TotalSubmissions int            `json:"total_submissions"`
	ByType           []CountByLabel `json:"by_type"`
	ByStatus         []CountByLabel `json:"by_status"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// TimelineComplianceReport measures milestone completion against plan.
type TimelineComplianceReport struct {
	TotalMilestones int       `json:"total_milestones"`
	CompletedOnTime int       `json:"completed_on_time"`
	CompletedLate   int       `json:"completed_late"`
	Overdue         int       `json:"overdue"`
	Pending         int       `json:"pending"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// AppraisalSummaryReport groups appraisals by workflow status.
type AppraisalSummaryReport struct {
	TotalAppraisals int            `json:"total_appraisals"`
	ByStatus        []CountByLabel `json:"by_status"`
	ActionRequired  int            `json:"action_required"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// ReportFormat selects the export rendering.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)
