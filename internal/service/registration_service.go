package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
)

type registrationRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Registration, error)
	ExistsByStudent(ctx context.Context, studentNumber string) (bool, error)
	Create(ctx context.Context, registration *models.Registration) error
	Update(ctx context.Context, registration *models.Registration) error
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error)
}

// CreateRegistrationRequest opens a registration record for a student.
type CreateRegistrationRequest struct {
	StudentNumber                string     `json:"student_number" validate:"required"`
	RegistrationStatus           *string    `json:"registration_status"`
	OriginalRegistrationDeadline *time.Time `json:"original_registration_deadline"`
}

// UpdateRegistrationRequest rewrites the administrative fields of a
// registration.
type UpdateRegistrationRequest struct {
	RegistrationStatus               *string    `json:"registration_status"`
	OriginalRegistrationDeadline     *time.Time `json:"original_registration_deadline"`
	RevisedRegistrationDeadline      *time.Time `json:"revised_registration_deadline"`
	DatePGRMovedToNewBlackboardGroup *time.Time `json:"date_pgr_moved_to_new_blackboard_group"`
	PGRRegistrationProcessCompleted  bool       `json:"pgr_registration_process_completed"`
}

// ApproveExtensionRequest grants a requested extension.
type ApproveExtensionRequest struct {
	ExtensionLengthDays int `json:"extension_length_days" validate:"required,gt=0"`
}

// RegistrationService manages registration records and extension flows.
type RegistrationService struct {
	repo      registrationRepository
	students  studentRepository
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(repo registrationRepository, students studentRepository, notify notifier, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, students: students, notifier: notify, validator: validate, logger: logger}
}

// List returns registrations and pagination metadata.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, *models.Pagination, error) {
	registrations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return registrations, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a registration. Student callers may only read their own.
func (s *RegistrationService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Registration, error) {
	registration, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsStudent(registration.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only access their own registration")
	}
	return registration, nil
}

// Create opens a registration for a student. A student holds at most one
// registration, so a duplicate is rejected with a conflict.
func (s *RegistrationService) Create(ctx context.Context, req CreateRegistrationRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if _, err := s.students.FindByNumber(ctx, req.StudentNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.repo.ExistsByStudent(ctx, req.StudentNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing registration")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrRegistrationExists, "student already has a registration")
	}

	registration := &models.Registration{
		StudentNumber:                req.StudentNumber,
		RegistrationStatus:           req.RegistrationStatus,
		OriginalRegistrationDeadline: req.OriginalRegistrationDeadline,
	}
	if err := s.repo.Create(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	return registration, nil
}

// Update rewrites the administrative fields of a registration.
func (s *RegistrationService) Update(ctx context.Context, id int64, req UpdateRegistrationRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	registration, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	registration.RegistrationStatus = req.RegistrationStatus
	registration.OriginalRegistrationDeadline = req.OriginalRegistrationDeadline
	registration.RevisedRegistrationDeadline = req.RevisedRegistrationDeadline
	registration.DatePGRMovedToNewBlackboardGroup = req.DatePGRMovedToNewBlackboardGroup
	registration.PGRRegistrationProcessCompleted = req.PGRRegistrationProcessCompleted
	if err := s.repo.Update(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration")
	}
	return registration, nil
}

// RequestExtension stamps an extension request on the registration.
func (s *RegistrationService) RequestExtension(ctx context.Context, actor models.Actor, id int64) (*models.Registration, error) {
	registration, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	registration.RegistrationExtensionRequestDate = &now
	if err := s.repo.Update(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record extension request")
	}

	s.notify(ctx, NotificationEvent{
		UserID:            actor.UserID,
		ActionType:        "extension_requested",
		Variables:         map[string]string{"student_number": registration.StudentNumber},
		RelatedEntityType: "registration",
		RelatedEntityID:   registration.RegistrationID,
	})
	return registration, nil
}

// ApproveExtension grants the requested extension, computing the revised
// deadline from the original one when present.
func (s *RegistrationService) ApproveExtension(ctx context.Context, actor models.Actor, id int64, req ApproveExtensionRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extension payload")
	}
	registration, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	registration.DateOfExtensionApproval = &now
	registration.RegistrationExtensionLengthDays = &req.ExtensionLengthDays
	if registration.OriginalRegistrationDeadline != nil {
		revised := registration.OriginalRegistrationDeadline.AddDate(0, 0, req.ExtensionLengthDays)
		registration.RevisedRegistrationDeadline = &revised
	}
	if err := s.repo.Update(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve extension")
	}

	s.notify(ctx, NotificationEvent{
		UserID:            actor.UserID,
		ActionType:        "extension_approved",
		Variables:         map[string]string{"days": strconv.Itoa(req.ExtensionLengthDays)},
		RelatedEntityType: "registration",
		RelatedEntityID:   registration.RegistrationID,
	})
	return registration, nil
}

func (s *RegistrationService) load(ctx context.Context, id int64) (*models.Registration, error) {
	registration, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return registration, nil
}

func (s *RegistrationService) notify(ctx context.Context, event NotificationEvent) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("failed to dispatch notification", zap.String("action", event.ActionType), zap.Error(err))
	}
}
