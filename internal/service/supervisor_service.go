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

type supervisorRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Supervisor, error)
	Create(ctx context.Context, supervisor *models.Supervisor) error
	Update(ctx context.Context, supervisor *models.Supervisor) error
	List(ctx context.Context, search string, page, pageSize int) ([]models.Supervisor, int, error)
}

type studentSupervisorRepository interface {
	FindByID(ctx context.Context, id int64) (*models.StudentSupervisor, error)
	Create(ctx context.Context, link *models.StudentSupervisor) error
	Update(ctx context.Context, link *models.StudentSupervisor) error
	Delete(ctx context.Context, id int64) error
	ListByStudent(ctx context.Context, studentNumber string) ([]models.StudentSupervisor, error)
	ListBySupervisor(ctx context.Context, supervisorID int64) ([]models.StudentSupervisor, error)
}

// SupervisorRequest holds payload for creating or updating supervisors.
type SupervisorRequest struct {
	SupervisorName  string  `json:"supervisor_name" validate:"required"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Department      *string `json:"department"`
	SupervisorNotes *string `json:"supervisor_notes"`
}

// AssignSupervisorRequest links a supervisor to a student.
type AssignSupervisorRequest struct {
	StudentNumber    string     `json:"student_number" validate:"required"`
	SupervisorID     int64      `json:"supervisor_id" validate:"required"`
	Role             string     `json:"role" validate:"required"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	SupervisionNotes *string    `json:"supervision_notes"`
}

// UpdateAssignmentRequest modifies an existing supervision link.
type UpdateAssignmentRequest struct {
	Role             string     `json:"role" validate:"required"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	SupervisionNotes *string    `json:"supervision_notes"`
}

// SupervisorService manages supervisors and their student assignments.
type SupervisorService struct {
	repo      supervisorRepository
	links     studentSupervisorRepository
	students  studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSupervisorService constructs the supervisor service.
func NewSupervisorService(repo supervisorRepository, links studentSupervisorRepository, students studentRepository, validate *validator.Validate, logger *zap.Logger) *SupervisorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupervisorService{repo: repo, links: links, students: students, validator: validate, logger: logger}
}

// List returns supervisors and pagination metadata.
func (s *SupervisorService) List(ctx context.Context, search string, page, pageSize int) ([]models.Supervisor, *models.Pagination, error) {
	supervisors, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list supervisors")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return supervisors, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a single supervisor.
func (s *SupervisorService) Get(ctx context.Context, id int64) (*models.Supervisor, error) {
	supervisor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
	}
	return supervisor, nil
}

// Create registers a new supervisor.
func (s *SupervisorService) Create(ctx context.Context, req SupervisorRequest) (*models.Supervisor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supervisor payload")
	}
	supervisor := &models.Supervisor{
		SupervisorName:  req.SupervisorName,
		Email:           req.Email,
		Department:      req.Department,
		SupervisorNotes: req.SupervisorNotes,
	}
	if err := s.repo.Create(ctx, supervisor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create supervisor")
	}
	return supervisor, nil
}

// Update modifies an existing supervisor.
func (s *SupervisorService) Update(ctx context.Context, id int64, req SupervisorRequest) (*models.Supervisor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supervisor payload")
	}
	supervisor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	supervisor.SupervisorName = req.SupervisorName
	supervisor.Email = req.Email
	supervisor.Department = req.Department
	supervisor.SupervisorNotes = req.SupervisorNotes
	if err := s.repo.Update(ctx, supervisor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update supervisor")
	}
	return supervisor, nil
}

// Assign links a supervisor to a student in a named capacity.
func (s *SupervisorService) Assign(ctx context.Context, req AssignSupervisorRequest) (*models.StudentSupervisor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.students.FindByNumber(ctx, req.StudentNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.repo.FindByID(ctx, req.SupervisorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
	}

	link := &models.StudentSupervisor{
		StudentNumber:    req.StudentNumber,
		SupervisorID:     req.SupervisorID,
		Role:             req.Role,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		SupervisionNotes: req.SupervisionNotes,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return link, nil
}

// UpdateAssignment modifies a supervision link.
func (s *SupervisorService) UpdateAssignment(ctx context.Context, id int64, req UpdateAssignmentRequest) (*models.StudentSupervisor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	link, err := s.links.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	link.Role = req.Role
	link.StartDate = req.StartDate
	link.EndDate = req.EndDate
	link.SupervisionNotes = req.SupervisionNotes
	if err := s.links.Update(ctx, link); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return link, nil
}

// RemoveAssignment deletes a supervision link.
func (s *SupervisorService) RemoveAssignment(ctx context.Context, id int64) error {
	if _, err := s.links.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.links.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// StudentAssignments lists a student's supervision links. Student callers
// may only read their own.
func (s *SupervisorService) StudentAssignments(ctx context.Context, actor models.Actor, studentNumber string) ([]models.StudentSupervisor, error) {
	if !actor.OwnsStudent(studentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only access their own supervision records")
	}
	links, err := s.links.ListByStudent(ctx, studentNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return links, nil
}

// SupervisorAssignments lists the students a supervisor supervises.
func (s *SupervisorService) SupervisorAssignments(ctx context.Context, supervisorID int64) ([]models.StudentSupervisor, error) {
	links, err := s.links.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return links, nil
}
