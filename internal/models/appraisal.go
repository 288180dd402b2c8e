package models

import "time"

// AppraisalStatus tracks where an annual appraisal sits in its workflow.
// Transitions are deliberately unguarded: staff may re-run any step as a
// manual override, so a later submission simply overwrites the earlier one.
type AppraisalStatus string

const (
	AppraisalPending              AppraisalStatus = "pending"
	AppraisalStudentSubmitted     AppraisalStatus = "student_submitted"
	AppraisalDOSSubmitted         AppraisalStatus = "dos_submitted"
	AppraisalUnderReview          AppraisalStatus = "under_review"
	AppraisalApproved             AppraisalStatus = "approved"
	AppraisalUnsatisfactory       AppraisalStatus = "unsatisfactory"
	AppraisalResubmissionRequired AppraisalStatus = "resubmission_required"
)

// Appraisal is an annual progress appraisal. The student completes the five
// student_* fields, the Director of Studies the three dos_* fields, and a
// GBoS administrator records the review outcome.
type Appraisal struct {
	ID                    int64           `db:"id" json:"id"`
	StudentNumber         string          `db:"student_number" json:"student_number"`
	AcademicYear          string          `db:"academic_year" json:"academic_year"`
	AppraisalPeriod       *string         `db:"appraisal_period" json:"appraisal_period,omitempty"`
	DueDate               *time.Time      `db:"due_date" json:"due_date,omitempty"`
	StudentSubmissionDate *time.Time      `db:"student_submission_date" json:"student_submission_date,omitempty"`
	DOSSubmissionDate     *time.Time      `db:"dos_submission_date" json:"dos_submission_date,omitempty"`
	ReviewDate            *time.Time      `db:"review_date" json:"review_date,omitempty"`
	StudentProgressReport *string         `db:"student_progress_report" json:"student_progress_report,omitempty"`
	StudentAchievements   *string         `db:"student_achievements" json:"student_achievements,omitempty"`
	StudentChallenges     *string         `db:"student_challenges" json:"student_challenges,omitempty"`
	StudentGoals          *string         `db:"student_goals" json:"student_goals,omitempty"`
	StudentDevelopment    *string         `db:"student_development_needs" json:"student_development_needs,omitempty"`
	DOSComments           *string         `db:"dos_comments" json:"dos_comments,omitempty"`
	DOSProgressRating     *string         `db:"dos_progress_rating" json:"dos_progress_rating,omitempty"`
	DOSRecommendations    *string         `db:"dos_recommendations" json:"dos_recommendations,omitempty"`
	Status                AppraisalStatus `db:"status" json:"status"`
	ReviewerID            *int64          `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewerComments      *string         `db:"reviewer_comments" json:"reviewer_comments,omitempty"`
	ApprovedBy            *int64          `db:"approved_by" json:"approved_by,omitempty"`
	ActionRequired        bool            `db:"action_required" json:"action_required"`
	ActionDescription     *string         `db:"action_description" json:"action_description,omitempty"`
	ActionDeadline        *time.Time      `db:"action_deadline" json:"action_deadline,omitempty"`
	CreatedDate           time.Time       `db:"created_date" json:"created_date"`
	UpdatedDate           time.Time       `db:"updated_date" json:"updated_date"`
}

// StudentAppraisalFields carries the five student-authored sections.
type StudentAppraisalFields struct {
	ProgressReport   *string `json:"student_progress_report"`
	Achievements     *string `json:"student_achievements"`
	Challenges       *string `json:"student_challenges"`
	Goals            *string `json:"student_goals"`
	DevelopmentNeeds *string `json:"student_development_needs"`
}

// DOSAppraisalFields carries the three DoS-authored sections.
type DOSAppraisalFields struct {
	Comments        *string `json:"dos_comments"`
	ProgressRating  *string `json:"dos_progress_rating" validate:"omitempty,oneof=excellent good satisfactory unsatisfactory"`
	Recommendations *string `json:"dos_recommendations"`
}

// AppraisalFilter narrows appraisal listings.
type AppraisalFilter struct {
	StudentNumber string
	AcademicYear  string
	Status        string
	Page          int
	PageSize      int
}
