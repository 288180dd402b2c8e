package models

import "time"

// SubmissionType classifies what a document submission is for.
type SubmissionType string

const (
	SubmissionRegistration SubmissionType = "registration"
	SubmissionVivaDocument SubmissionType = "viva_document"
	SubmissionThesis       SubmissionType = "thesis"
	SubmissionCorrection   SubmissionType = "correction"
	SubmissionAnnualReport SubmissionType = "annual_report"
)

// ValidSubmissionType reports whether t is a recognised submission type.
func ValidSubmissionType(t SubmissionType) bool {
	switch t {
	case SubmissionRegistration, SubmissionVivaDocument, SubmissionThesis,
		SubmissionCorrection, SubmissionAnnualReport:
		return true
	}
	return false
}

// SubmissionStatus tracks a submission through review.
type SubmissionStatus string

const (
	SubmissionDraft            SubmissionStatus = "draft"
	SubmissionSubmitted        SubmissionStatus = "submitted"
	SubmissionUnderReview      SubmissionStatus = "under_review"
	SubmissionApproved         SubmissionStatus = "approved"
	SubmissionRejected         SubmissionStatus = "rejected"
	SubmissionRevisionRequired SubmissionStatus = "revision_required"
)

// ValidSubmissionStatus reports whether s is a recognised status.
func ValidSubmissionStatus(s SubmissionStatus) bool {
	switch s {
	case SubmissionDraft, SubmissionSubmitted, SubmissionUnderReview,
		SubmissionApproved, SubmissionRejected, SubmissionRevisionRequired:
		return true
	}
	return false
}

// Submission is a document a student submits for review. Students may edit
// content only while the submission is in draft; reviewers move it through
// the remaining statuses.
type Submission struct {
	ID             int64            `db:"id" json:"id"`
	StudentNumber  string           `db:"student_number" json:"student_number"`
	SubmissionType SubmissionType   `db:"submission_type" json:"submission_type"`
	Title          string           `db:"title" json:"title"`
	Description    *string          `db:"description" json:"description,omitempty"`
	FilePath       *string          `db:"file_path" json:"file_path,omitempty"`
	FileName       *string          `db:"file_name" json:"file_name,omitempty"`
	FileSize       *int64           `db:"file_size" json:"file_size,omitempty"`
	MimeType       *string          `db:"mime_type" json:"mime_type,omitempty"`
	Status         SubmissionStatus `db:"status" json:"status"`
	SubmissionDate *time.Time       `db:"submission_date" json:"submission_date,omitempty"`
	ReviewDeadline *time.Time       `db:"review_deadline" json:"review_deadline,omitempty"`
	ReviewedBy     *int64           `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewDate     *time.Time       `db:"review_date" json:"review_date,omitempty"`
	ReviewComments *string          `db:"review_comments" json:"review_comments,omitempty"`
	CreatedDate    time.Time        `db:"created_date" json:"created_date"`
	UpdatedDate    time.Time        `db:"updated_date" json:"updated_date"`
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	StudentNumber string
	Type          string
	Status        string
	Page          int
	PageSize      int
}
