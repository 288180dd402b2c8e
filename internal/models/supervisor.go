package models

import "time"

// Supervisor is an academic staff member who can supervise students or sit
// on viva panels as an internal examiner.
type Supervisor struct {
	SupervisorID    int64     `db:"supervisor_id" json:"supervisor_id"`
	SupervisorName  string    `db:"supervisor_name" json:"supervisor_name"`
	Email           *string   `db:"email" json:"email,omitempty"`
	Department      *string   `db:"department" json:"department,omitempty"`
	SupervisorNotes *string   `db:"supervisor_notes" json:"supervisor_notes,omitempty"`
	CreatedDate     time.Time `db:"created_date" json:"created_date"`
}

// StudentSupervisor links a student with a supervisor in a named capacity,
// e.g. "Director of Studies", "Supervisor 1".
type StudentSupervisor struct {
	StudentSupervisorID int64      `db:"student_supervisor_id" json:"student_supervisor_id"`
	StudentNumber       string     `db:"student_number" json:"student_number"`
	SupervisorID        int64      `db:"supervisor_id" json:"supervisor_id"`
	Role                string     `db:"role" json:"role"`
	StartDate           *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate             *time.Time `db:"end_date" json:"end_date,omitempty"`
	SupervisionNotes    *string    `db:"supervision_notes" json:"supervision_notes,omitempty"`
}
