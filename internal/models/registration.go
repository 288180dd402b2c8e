package models

import "time"

// Registration tracks a student's registration process, including extension
// requests. A student has at most one registration row.
type Registration struct {
	RegistrationID                   int64      `db:"registration_id" json:"registration_id"`
	StudentNumber                    string     `db:"student_number" json:"student_number"`
	RegistrationStatus               *string    `db:"registration_status" json:"registration_status,omitempty"`
	OriginalRegistrationDeadline     *time.Time `db:"original_registration_deadline" json:"original_registration_deadline,omitempty"`
	RegistrationExtensionRequestDate *time.Time `db:"registration_extension_request_date" json:"registration_extension_request_date,omitempty"`
	DateOfExtensionApproval          *time.Time `db:"date_of_registration_extension_approval" json:"date_of_registration_extension_approval,omitempty"`
	RegistrationExtensionLengthDays  *int       `db:"registration_extension_length_days" json:"registration_extension_length_days,omitempty"`
	RevisedRegistrationDeadline      *time.Time `db:"revised_registration_deadline" json:"revised_registration_deadline,omitempty"`
	DatePGRMovedToNewBlackboardGroup *time.Time `db:"date_pgr_moved_to_new_blackboard_group" json:"date_pgr_moved_to_new_blackboard_group,omitempty"`
	PGRRegistrationProcessCompleted  bool       `db:"pgr_registration_process_completed" json:"pgr_registration_process_completed"`
	CreatedDate                      time.Time  `db:"created_date" json:"created_date"`
	UpdatedDate                      time.Time  `db:"updated_date" json:"updated_date"`
}

// RegistrationFilter narrows registration listings.
type RegistrationFilter struct {
	StudentNumber string
	Status        string
	Page          int
	PageSize      int
}
