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

type vivaTeamRepository interface {
	FindByID(ctx context.Context, id int64) (*models.VivaTeam, error)
	Create(ctx context.Context, team *models.VivaTeam) error
	Update(ctx context.Context, team *models.VivaTeam) error
	List(ctx context.Context, filter models.VivaTeamFilter) ([]models.VivaTeam, int, error)
}

type vivaSupervisorLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Supervisor, error)
}

// ProposeVivaTeamRequest assembles an examiner panel. An internal examiner
// ID of zero means "not assigned" and is normalised to null.
type ProposeVivaTeamRequest struct {
	StudentNumber               string     `json:"student_number" validate:"required"`
	Stage                       string     `json:"stage" validate:"required"`
	InternalExaminer1ID         int64      `json:"internal_examiner_1_id"`
	InternalExaminer2ID         int64      `json:"internal_examiner_2_id"`
	ExternalExaminerName        *string    `json:"external_examiner_name"`
	ExternalExaminerEmail       *string    `json:"external_examiner_email" validate:"omitempty,email"`
	ExternalExaminerInstitution *string    `json:"external_examiner_institution"`
	ProposedDate                *time.Time `json:"proposed_date"`
}

// UpdateVivaTeamRequest rewrites panel composition before approval.
type UpdateVivaTeamRequest struct {
	InternalExaminer1ID         int64   `json:"internal_examiner_1_id"`
	InternalExaminer2ID         int64   `json:"internal_examiner_2_id"`
	ExternalExaminerName        *string `json:"external_examiner_name"`
	ExternalExaminerEmail       *string `json:"external_examiner_email" validate:"omitempty,email"`
	ExternalExaminerInstitution *string `json:"external_examiner_institution"`
}

// RejectVivaTeamRequest declines a proposed panel.
type RejectVivaTeamRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ScheduleVivaRequest books the examination.
type ScheduleVivaRequest struct {
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	Location      *string   `json:"location"`
}

// VivaOutcomeRequest records the examination result.
type VivaOutcomeRequest struct {
	Outcome      string     `json:"outcome" validate:"required"`
	OutcomeNotes *string    `json:"outcome_notes"`
	ActualDate   *time.Time `json:"actual_date"`
}

// VivaService runs the viva team workflow: propose, approve or reject,
// schedule, then record the outcome. Scheduling is the only guarded
// transition; approval of an already scheduled team is treated as a no-op
// restamp rather than an error.
type VivaService struct {
	repo        vivaTeamRepository
	students    studentRepository
	supervisors vivaSupervisorLookup
	notifier    notifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewVivaService constructs the viva service.
func NewVivaService(repo vivaTeamRepository, students studentRepository, supervisors vivaSupervisorLookup, notify notifier, validate *validator.Validate, logger *zap.Logger) *VivaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VivaService{repo: repo, students: students, supervisors: supervisors, notifier: notify, validator: validate, logger: logger}
}

// List returns viva teams and pagination metadata. Student callers are
// pinned to their own teams.
func (s *VivaService) List(ctx context.Context, actor models.Actor, filter models.VivaTeamFilter) ([]models.VivaTeam, *models.Pagination, error) {
	if actor.Role == models.RoleStudent {
		filter.StudentNumber = actor.Username
	}
	teams, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list viva teams")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return teams, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a viva team with ownership enforcement.
func (s *VivaService) Get(ctx context.Context, actor models.Actor, id int64) (*models.VivaTeam, error) {
	team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsStudent(team.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only access their own viva teams")
	}
	return team, nil
}

// Propose assembles a new examiner panel in proposed status.
func (s *VivaService) Propose(ctx context.Context, actor models.Actor, req ProposeVivaTeamRequest) (*models.VivaTeam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid viva team payload")
	}
	if !models.ValidVivaStage(models.VivaStage(req.Stage)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown viva stage")
	}
	if _, err := s.students.FindByNumber(ctx, req.StudentNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	examiner1, err := s.resolveExaminer(ctx, req.InternalExaminer1ID)
	if err != nil {
		return nil, err
	}
	examiner2, err := s.resolveExaminer(ctx, req.InternalExaminer2ID)
	if err != nil {
		return nil, err
	}

	proposed := time.Now().UTC()
	if req.ProposedDate != nil {
		proposed = *req.ProposedDate
	}
	team := &models.VivaTeam{
		StudentNumber:               req.StudentNumber,
		Stage:                       models.VivaStage(req.Stage),
		Status:                      models.VivaProposed,
		InternalExaminer1ID:         examiner1,
		InternalExaminer2ID:         examiner2,
		ExternalExaminerName:        req.ExternalExaminerName,
		ExternalExaminerEmail:       req.ExternalExaminerEmail,
		ExternalExaminerInstitution: req.ExternalExaminerInstitution,
		ProposedDate:                &proposed,
		ProposedBy:                  &actor.UserID,
	}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create viva team")
	}

	s.notify(ctx, NotificationEvent{
		UserID:     actor.UserID,
		ActionType: "viva_team_proposed",
		Variables: map[string]string{
			"student_number": team.StudentNumber,
			"stage":          string(team.Stage),
		},
		RelatedEntityType: "viva_team",
		RelatedEntityID:   team.ID,
	})
	return team, nil
}

// UpdateTeam rewrites the panel composition.
func (s *VivaService) UpdateTeam(ctx context.Context, id int64, req UpdateVivaTeamRequest) (*models.VivaTeam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid viva team payload")
	}
	team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	examiner1, err := s.resolveExaminer(ctx, req.InternalExaminer1ID)
	if err != nil {
		return nil, err
	}
	examiner2, err := s.resolveExaminer(ctx, req.InternalExaminer2ID)
	if err != nil {
		return nil, err
	}

	team.InternalExaminer1ID = examiner1
	team.InternalExaminer2ID = examiner2
	team.ExternalExaminerName = req.ExternalExaminerName
	team.ExternalExaminerEmail = req.ExternalExaminerEmail
	team.ExternalExaminerInstitution = req.ExternalExaminerInstitution
	if err := s.repo.Update(ctx, team); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update viva team")
	}
	return team, nil
}

// Approve accepts a proposed panel.
func (s *VivaService) Approve(ctx context.Context, actor models.Actor, id int64) (*models.VivaTeam, error) {
	team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	team.Status = models.VivaApproved
	team.ApprovedBy = &actor.UserID
	team.ApprovalDate = &now
	if err := s.repo.Update(ctx, team); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve viva team")
	}

	s.notify(ctx, NotificationEvent{
		UserID:     actor.UserID,
		ActionType: "viva_team_approved",
		Variables: map[string]string{
			"student_number": team.StudentNumber,
			"stage":          string(team.Stage),
		},
		RelatedEntityType: "viva_team",
		RelatedEntityID:   team.ID,
	})
	return team, nil
}

// Reject declines a panel and records the reason.
func (s *VivaService) Reject(ctx context.Context, actor models.Actor, id int64, req RejectVivaTeamRequest) (*models.VivaTeam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}
	team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	team.Status = models.VivaRejected
	team.RejectionReason = &req.Reason
	if err := s.repo.Update(ctx, team); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject viva team")
	}

	s.notify(ctx, NotificationEvent{
		UserID:     actor.UserID,
		ActionType: "viva_team_rejected",
		Variables: map[string]string{
			"student_number": team.StudentNumber,
			"stage":          string(team.Stage),
			"reason":         req.Reason,
		},
		RelatedEntityType: "viva_team",
		RelatedEntityID:   team.ID,
	})
	return team, nil
}

// Schedule books the examination. The panel must already be approved, or
// rescheduled from an existing booking.
func (s *VivaService) Schedule(ctx context.Context, actor models.Actor, id int64, req ScheduleVivaRequest) (*models.VivaTeam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if team.Status != models.VivaApproved && team.Status != models.VivaScheduled {
		return nil, appErrors.Clone(appErrors.ErrVivaNotApproved, "viva team must be approved before scheduling")
	}

	team.ScheduledDate = &req.ScheduledDate
	team.Location = req.Location
	team.Status = models.VivaScheduled
	if err := s.repo.Update(ctx, team); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule viva")
	}

	s.notify(ctx, NotificationEvent{
		UserID:     actor.UserID,
		ActionType: "viva_scheduled",
		Variables: map[string]string{
			"stage": string(team.Stage),
			"date":  req.ScheduledDate.Format(time.RFC3339),
		},
		RelatedEntityType: "viva_team",
		RelatedEntityID:   team.ID,
	})
	return team, nil
}

// RecordOutcome completes the viva with its result.
func (s *VivaService) RecordOutcome(ctx context.Context, actor models.Actor, id int64, req VivaOutcomeRequest) (*models.VivaTeam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid outcome payload")
	}
	team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	actual := time.Now().UTC()
	if req.ActualDate != nil {
		actual = *req.ActualDate
	}
	team.Outcome = &req.Outcome
	team.OutcomeNotes = req.OutcomeNotes
	team.ActualDate = &actual
	team.Status = models.VivaCompleted
	if err := s.repo.Update(ctx, team); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record outcome")
	}
	return team, nil
}

// resolveExaminer checks an internal examiner reference; zero means
// unassigned.
func (s *VivaService) resolveExaminer(ctx context.Context, id int64) (*int64, error) {
	if id == 0 {
		return nil, nil
	}
	if _, err := s.supervisors.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internal examiner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internal examiner")
	}
	return &id, nil
}

func (s *VivaService) load(ctx context.Context, id int64) (*models.VivaTeam, error) {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "viva team not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load viva team")
	}
	return team, nil
}

func (s *VivaService) notify(ctx context.Context, event NotificationEvent) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("failed to dispatch notification", zap.String("action", event.ActionType), zap.Error(err))
	}
}
