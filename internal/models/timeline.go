package models

import "time"

// TimelineStage identifies the phase a milestone belongs to.
type TimelineStage string

const (
	TimelineStageProposal    TimelineStage = "proposal"
	TimelineStageProgression TimelineStage = "progression"
	TimelineStageFinal       TimelineStage = "final"
)

// Timeline milestone statuses.
const (
	MilestonePending   = "pending"
	MilestoneCompleted = "completed"
	MilestoneOverdue   = "overdue"
)

// Timeline is a single milestone on a student's research timeline.
type Timeline struct {
	ID            int64         `db:"id" json:"id"`
	StudentNumber string        `db:"student_number" json:"student_number"`
	Stage         TimelineStage `db:"stage" json:"stage"`
	MilestoneName string        `db:"milestone_name" json:"milestone_name"`
	PlannedDate   *time.Time    `db:"planned_date" json:"planned_date,omitempty"`
	ActualDate    *time.Time    `db:"actual_date" json:"actual_date,omitempty"`
	Status        string        `db:"status" json:"status"`
	Description   *string       `db:"description" json:"description,omitempty"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
}

// TimelineFilter narrows milestone listings.
type TimelineFilter struct {
	StudentNumber string
	Stage         string
	Status        string
}
