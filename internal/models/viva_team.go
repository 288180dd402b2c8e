package models

import "time"

// VivaStage identifies which examination a viva team is assembled for.
type VivaStage string

const (
	VivaStageRegistration VivaStage = "registration"
	VivaStageProgression  VivaStage = "progression"
	VivaStageFinal        VivaStage = "final"
)

// ValidVivaStage reports whether s is a recognised stage.
func ValidVivaStage(s VivaStage) bool {
	switch s {
	case VivaStageRegistration, VivaStageProgression, VivaStageFinal:
		return true
	}
	return false
}

// VivaStatus tracks a viva team through proposal, approval and scheduling.
type VivaStatus string

const (
	VivaProposed  VivaStatus = "proposed"
	VivaApproved  VivaStatus = "approved"
	VivaRejected  VivaStatus = "rejected"
	VivaScheduled VivaStatus = "scheduled"
	VivaCompleted VivaStatus = "completed"
)

// VivaTeam is the examiner panel for a viva. Internal examiners reference
// supervisor records; the external examiner is captured as free text.
// Scheduling requires prior approval; no other transition is guarded.
type VivaTeam struct {
	ID                          int64      `db:"id" json:"id"`
	StudentNumber               string     `db:"student_number" json:"student_number"`
	Stage                       VivaStage  `db:"stage" json:"stage"`
	Status                      VivaStatus `db:"status" json:"status"`
	InternalExaminer1ID         *int64     `db:"internal_examiner_1_id" json:"internal_examiner_1_id,omitempty"`
	InternalExaminer2ID         *int64     `db:"internal_examiner_2_id" json:"internal_examiner_2_id,omitempty"`
	ExternalExaminerName        *string    `db:"external_examiner_name" json:"external_examiner_name,omitempty"`
	ExternalExaminerEmail       *string    `db:"external_examiner_email" json:"external_examiner_email,omitempty"`
	ExternalExaminerInstitution *string    `db:"external_examiner_institution" json:"external_examiner_institution,omitempty"`
	ProposedDate                *time.Time `db:"proposed_date" json:"proposed_date,omitempty"`
	ScheduledDate               *time.Time `db:"scheduled_date" json:"scheduled_date,omitempty"`
	ActualDate                  *time.Time `db:"actual_date" json:"actual_date,omitempty"`
	Location                    *string    `db:"location" json:"location,omitempty"`
	Outcome                     *string    `db:"outcome" json:"outcome,omitempty"`
	OutcomeNotes                *string    `db:"outcome_notes" json:"outcome_notes,omitempty"`
	RejectionReason             *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ProposedBy                  *int64     `db:"proposed_by" json:"proposed_by,omitempty"`
	ApprovedBy                  *int64     `db:"approved_by" json:"approved_by,omitempty"`
	ApprovalDate                *time.Time `db:"approval_date" json:"approval_date,omitempty"`
	CreatedDate                 time.Time  `db:"created_date" json:"created_date"`
	UpdatedDate                 time.Time  `db:"updated_date" json:"updated_date"`
}

// VivaTeamFilter narrows viva team listings.
type VivaTeamFilter struct {
	StudentNumber string
	Stage         string
	Status        string
	Page          int
	PageSize      int
}
