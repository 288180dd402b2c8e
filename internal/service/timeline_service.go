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

type timelineRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Timeline, error)
	Create(ctx context.Context, milestone *models.Timeline) error
	Update(ctx context.Context, milestone *models.Timeline) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.TimelineFilter) ([]models.Timeline, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// CreateMilestoneRequest adds a milestone to a student's timeline.
type CreateMilestoneRequest struct {
	StudentNumber string     `json:"student_number" validate:"required"`
	Stage         string     `json:"stage" validate:"required,oneof=proposal progression final"`
	MilestoneName string     `json:"milestone_name" validate:"required"`
	PlannedDate   *time.Time `json:"planned_date"`
	Description   *string    `json:"description"`
	Notes         *string    `json:"notes"`
}

// UpdateMilestoneRequest rewrites a milestone's plan.
type UpdateMilestoneRequest struct {
	Stage         string     `json:"stage" validate:"required,oneof=proposal progression final"`
	MilestoneName string     `json:"milestone_name" validate:"required"`
	PlannedDate   *time.Time `json:"planned_date"`
	Description   *string    `json:"description"`
	Notes         *string    `json:"notes"`
}

// CompleteMilestoneRequest records when a milestone was achieved.
type CompleteMilestoneRequest struct {
	ActualDate *time.Time `json:"actual_date"`
	Notes      *string    `json:"notes"`
}

// TimelineService manages research timeline milestones.
type TimelineService struct {
	repo      timelineRepository
	students  studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimelineService constructs the timeline service.
func NewTimelineService(repo timelineRepository, students studentRepository, validate *validator.Validate, logger *zap.Logger) *TimelineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimelineService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns milestones matching the filter. Student callers are pinned
// to their own timeline.
func (s *TimelineService) List(ctx context.Context, actor models.Actor, filter models.TimelineFilter) ([]models.Timeline, error) {
	if actor.Role == models.RoleStudent {
		filter.StudentNumber = actor.Username
	}
	milestones, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list milestones")
	}
	return milestones, nil
}

// Get returns a single milestone with ownership enforcement.
func (s *TimelineService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Timeline, error) {
	milestone, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsStudent(milestone.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only access their own timeline")
	}
	return milestone, nil
}

// Create adds a milestone in pending status.
func (s *TimelineService) Create(ctx context.Context, req CreateMilestoneRequest) (*models.Timeline, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid milestone payload")
	}
	if _, err := s.students.FindByNumber(ctx, req.StudentNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	milestone := &models.Timeline{
		StudentNumber: req.StudentNumber,
		Stage:         models.TimelineStage(req.Stage),
		MilestoneName: req.MilestoneName,
		PlannedDate:   req.PlannedDate,
		Status:        models.MilestonePending,
		Description:   req.Description,
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, milestone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create milestone")
	}
	return milestone, nil
}

// Update rewrites a milestone's plan without touching its completion state.
func (s *TimelineService) Update(ctx context.Context, id int64, req UpdateMilestoneRequest) (*models.Timeline, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid milestone payload")
	}
	milestone, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	milestone.Stage = models.TimelineStage(req.Stage)
	milestone.MilestoneName = req.MilestoneName
	milestone.PlannedDate = req.PlannedDate
	milestone.Description = req.Description
	milestone.Notes = req.Notes
	if err := s.repo.Update(ctx, milestone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update milestone")
	}
	return milestone, nil
}

// Complete marks a milestone achieved. Students may complete only their own
// milestones; the actual date defaults to now.
func (s *TimelineService) Complete(ctx context.Context, actor models.Actor, id int64, req CompleteMilestoneRequest) (*models.Timeline, error) {
	milestone, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsStudent(milestone.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only complete their own milestones")
	}

	actual := time.Now().UTC()
	if req.ActualDate != nil {
		actual = *req.ActualDate
	}
	milestone.ActualDate = &actual
	milestone.Status = models.MilestoneCompleted
	if req.Notes != nil {
		milestone.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, milestone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete milestone")
	}
	return milestone, nil
}

// Delete removes a milestone.
func (s *TimelineService) Delete(ctx context.Context, id int64) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete milestone")
	}
	return nil
}

// SweepOverdue flags pending milestones past their planned date.
func (s *TimelineService) SweepOverdue(ctx context.Context) (int64, error) {
	changed, err := s.repo.MarkOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sweep overdue milestones")
	}
	if changed > 0 {
		s.logger.Info("milestones marked overdue", zap.Int64("count", changed))
	}
	return changed, nil
}

func (s *TimelineService) load(ctx context.Context, id int64) (*models.Timeline, error) {
	milestone, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "milestone not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load milestone")
	}
	return milestone, nil
}
