package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
)

type appraisalRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Appraisal, error)
	Create(ctx context.Context, appraisal *models.Appraisal) error
	Update(ctx context.Context, appraisal *models.Appraisal) error
	List(ctx context.Context, filter models.AppraisalFilter) ([]models.Appraisal, int, error)
	CountByStatus(ctx context.Context) ([]models.CountByLabel, error)
}

// CreateAppraisalRequest opens an appraisal cycle for a student.
type CreateAppraisalRequest struct {
	StudentNumber   string     `json:"student_number" validate:"required"`
	AcademicYear    string     `json:"academic_year" validate:"required"`
	AppraisalPeriod *string    `json:"appraisal_period"`
	DueDate         *time.Time `json:"due_date"`
}

// ReviewAppraisalRequest records a reviewer's assessment.
type ReviewAppraisalRequest struct {
	ReviewerComments *string `json:"reviewer_comments"`
}

// ApproveAppraisalRequest records the final outcome of a review cycle.
type ApproveAppraisalRequest struct {
	Outcome           string     `json:"outcome" validate:"required,oneof=approved unsatisfactory resubmission_required"`
	ActionRequired    bool       `json:"action_required"`
	ActionDescription *string    `json:"action_description"`
	ActionDeadline    *time.Time `json:"action_deadline"`
}

// AppraisalService runs the annual appraisal workflow. Steps do not guard
// on the current status: staff re-run any step as a manual override and a
// repeat submission overwrites the earlier one.
type AppraisalService struct {
	repo      appraisalRepository
	students  studentRepository
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAppraisalService constructs the appraisal service.
func NewAppraisalService(repo appraisalRepository, students studentRepository, notify notifier, validate *validator.Validate, logger *zap.Logger) *AppraisalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppraisalService{repo: repo, students: students, notifier: notify, validator: validate, logger: logger}
}

// List returns appraisals and pagination metadata. Student callers are
// pinned to their own appraisals.
func (s *AppraisalService) List(ctx context.Context, actor models.Actor, filter models.AppraisalFilter) ([]models.Appraisal, *models.Pagination, error) {
	if actor.Role == models.RoleStudent {
		filter.StudentNumber = actor.Username
	}
	appraisals, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appraisals")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return appraisals, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an appraisal with ownership enforcement.
func (s *AppraisalService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Appraisal, error) {
	appraisal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsStudent(appraisal.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only access their own appraisals")
	}
	return appraisal, nil
}

// Create opens an appraisal cycle in pending status.
func (s *AppraisalService) Create(ctx context.Context, req CreateAppraisalRequest) (*models.Appraisal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appraisal payload")
	}
	if _, err := s.students.FindByNumber(ctx, req.StudentNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	appraisal := &models.Appraisal{
		StudentNumber:   req.StudentNumber,
		AcademicYear:    req.AcademicYear,
		AppraisalPeriod: req.AppraisalPeriod,
		DueDate:         req.DueDate,
		Status:          models.AppraisalPending,
	}
	if err := s.repo.Create(ctx, appraisal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appraisal")
	}
	return appraisal, nil
}

// SubmitStudent records the student's self-assessment. A repeat submission
// replaces the previous one and re-stamps the submission date.
func (s *AppraisalService) SubmitStudent(ctx context.Context, actor models.Actor, id int64, fields models.StudentAppraisalFields) (*models.Appraisal, error) {
	appraisal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsStudent(appraisal.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only submit their own appraisal")
	}

	now := time.Now().UTC()
	appraisal.StudentProgressReport = fields.ProgressReport
	appraisal.StudentAchievements = fields.Achievements
	appraisal.StudentChallenges = fields.Challenges
	appraisal.StudentGoals = fields.Goals
	appraisal.StudentDevelopment = fields.DevelopmentNeeds
	appraisal.StudentSubmissionDate = &now
	appraisal.Status = models.AppraisalStudentSubmitted

	if err := s.repo.Update(ctx, appraisal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record student submission")
	}

	s.notify(ctx, NotificationEvent{
		UserID:     actor.UserID,
		ActionType: "appraisal_student_submitted",
		Variables: map[string]string{
			"student_number": appraisal.StudentNumber,
			"academic_year":  appraisal.AcademicYear,
		},
		RelatedEntityType: "appraisal",
		RelatedEntityID:   appraisal.ID,
	})
	return appraisal, nil
}

// SubmitDOS records the Director of Studies assessment.
func (s *AppraisalService) SubmitDOS(ctx context.Context, actor models.Actor, id int64, fields models.DOSAppraisalFields) (*models.Appraisal, error) {
	if err := s.validator.Struct(fields); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	appraisal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	appraisal.DOSComments = fields.Comments
	appraisal.DOSProgressRating = fields.ProgressRating
	appraisal.DOSRecommendations = fields.Recommendations
	appraisal.DOSSubmissionDate = &now
	appraisal.Status = models.AppraisalDOSSubmitted

	if err := s.repo.Update(ctx, appraisal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record assessment")
	}

	s.notify(ctx, NotificationEvent{
		UserID:     actor.UserID,
		ActionType: "appraisal_dos_submitted",
		Variables: map[string]string{
			"student_number": appraisal.StudentNumber,
			"academic_year":  appraisal.AcademicYear,
		},
		RelatedEntityType: "appraisal",
		RelatedEntityID:   appraisal.ID,
	})
	return appraisal, nil
}

// Review places the appraisal under review and records the reviewer.
func (s *AppraisalService) Review(ctx context.Context, actor models.Actor, id int64, req ReviewAppraisalRequest) (*models.Appraisal, error) {
	appraisal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	appraisal.ReviewerID = &actor.UserID
	appraisal.ReviewerComments = req.ReviewerComments
	appraisal.ReviewDate = &now
	appraisal.Status = models.AppraisalUnderReview

	if err := s.repo.Update(ctx, appraisal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record review")
	}

	s.notify(ctx, NotificationEvent{
		UserID:            actor.UserID,
		ActionType:        "appraisal_reviewed",
		Variables:         map[string]string{"academic_year": appraisal.AcademicYear},
		RelatedEntityType: "appraisal",
		RelatedEntityID:   appraisal.ID,
	})
	return appraisal, nil
}

// Approve records the final outcome of the review cycle.
func (s *AppraisalService) Approve(ctx context.Context, actor models.Actor, id int64, req ApproveAppraisalRequest) (*models.Appraisal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid outcome payload")
	}
	appraisal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	appraisal.Status = models.AppraisalStatus(req.Outcome)
	appraisal.ApprovedBy = &actor.UserID
	appraisal.ActionRequired = req.ActionRequired
	appraisal.ActionDescription = req.ActionDescription
	appraisal.ActionDeadline = req.ActionDeadline

	if err := s.repo.Update(ctx, appraisal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record outcome")
	}

	s.notify(ctx, NotificationEvent{
		UserID:     actor.UserID,
		ActionType: "appraisal_approved",
		Variables: map[string]string{
			"academic_year": appraisal.AcademicYear,
			"status":        string(appraisal.Status),
		},
		RelatedEntityType: "appraisal",
		RelatedEntityID:   appraisal.ID,
	})
	return appraisal, nil
}

func (s *AppraisalService) load(ctx context.Context, id int64) (*models.Appraisal, error) {
	appraisal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appraisal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appraisal")
	}
	return appraisal, nil
}

func (s *AppraisalService) notify(ctx context.Context, event NotificationEvent) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("failed to dispatch notification", zap.String("action", event.ActionType), zap.Error(err))
	}
}
