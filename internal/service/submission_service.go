package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
)

type submissionRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	ListPendingReview(ctx context.Context) ([]models.Submission, error)
}

type fileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// CreateSubmissionRequest opens a draft submission.
type CreateSubmissionRequest struct {
	StudentNumber  string     `json:"student_number" validate:"required"`
	SubmissionType string     `json:"submission_type" validate:"required"`
	Title          string     `json:"title" validate:"required"`
	Description    *string    `json:"description"`
	ReviewDeadline *time.Time `json:"review_deadline"`
}

// UpdateSubmissionRequest edits a draft's content.
type UpdateSubmissionRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
}

// ReviewSubmissionRequest records review comments with a decision.
type ReviewSubmissionRequest struct {
	Comments *string `json:"comments"`
}

// UploadedFile describes an incoming document attachment.
type UploadedFile struct {
	Name     string
	Size     int64
	MimeType string
	Content  io.Reader
}

// SubmissionService runs the document submission workflow. Students edit
// content only while a submission is in draft, though they may replace the
// attached document at any point, e.g. after a revision is requested.
type SubmissionService struct {
	repo      submissionRepository
	students  studentRepository
	files     fileStore
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger

	maxFileSize int64
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(repo submissionRepository, students studentRepository, files fileStore, notify notifier, maxFileSize int64, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxFileSize <= 0 {
		maxFileSize = 50 << 20
	}
	return &SubmissionService{
		repo:        repo,
		students:    students,
		files:       files,
		notifier:    notify,
		validator:   validate,
		logger:      logger,
		maxFileSize: maxFileSize,
	}
}

// List returns submissions and pagination metadata. Student callers are
// pinned to their own submissions.
func (s *SubmissionService) List(ctx context.Context, actor models.Actor, filter models.SubmissionFilter) ([]models.Submission, *models.Pagination, error) {
	if actor.Role == models.RoleStudent {
		filter.StudentNumber = actor.Username
	}
	submissions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return submissions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a submission with ownership enforcement.
func (s *SubmissionService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Submission, error) {
	submission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsStudent(submission.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only access their own submissions")
	}
	return submission, nil
}

// Create opens a draft submission.
func (s *SubmissionService) Create(ctx context.Context, actor models.Actor, req CreateSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if !models.ValidSubmissionType(models.SubmissionType(req.SubmissionType)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown submission type %q", req.SubmissionType))
	}
	if !actor.OwnsStudent(req.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only create their own submissions")
	}
	if _, err := s.students.FindByNumber(ctx, req.StudentNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	now := time.Now().UTC()
	submission := &models.Submission{
		StudentNumber:  req.StudentNumber,
		SubmissionType: models.SubmissionType(req.SubmissionType),
		Title:          req.Title,
		Description:    req.Description,
		Status:         models.SubmissionDraft,
		SubmissionDate: &now,
		ReviewDeadline: req.ReviewDeadline,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	return submission, nil
}

// Update edits the content of a submission. Students are limited to their own
// drafts; staff roles may update in any status.
func (s *SubmissionService) Update(ctx context.Context, actor models.Actor, id int64, req UpdateSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	submission, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	submission.Title = req.Title
	submission.Description = req.Description
	if err := s.repo.Update(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}
	return submission, nil
}

// AttachFile stores the uploaded document, records its metadata and restamps
// the submission date. Uploads are allowed in any status so students can
// replace the document after a revision is requested.
func (s *SubmissionService) AttachFile(ctx context.Context, actor models.Actor, id int64, file UploadedFile) (*models.Submission, error) {
	if file.Size > s.maxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.maxFileSize))
	}
	submission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsStudent(submission.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only upload files to their own submissions")
	}

	previous := submission.FilePath

	relPath := filepath.Join("submissions", fmt.Sprintf("%d", submission.ID), file.Name)
	stored, err := s.files.SaveStream(relPath, file.Content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	now := time.Now().UTC()
	submission.FilePath = &stored
	submission.FileName = &file.Name
	submission.FileSize = &file.Size
	submission.MimeType = &file.MimeType
	submission.SubmissionDate = &now
	if err := s.repo.Update(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record file metadata")
	}

	if previous != nil && *previous != stored {
		if err := s.files.Delete(*previous); err != nil {
			s.logger.Warn("failed to remove replaced file", zap.String("path", *previous), zap.Error(err))
		}
	}
	return submission, nil
}

// OpenFile streams the stored document of a submission.
func (s *SubmissionService) OpenFile(ctx context.Context, actor models.Actor, id int64) (io.ReadCloser, *models.Submission, error) {
	submission, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	if submission.FilePath == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "submission has no attached file")
	}
	reader, err := s.files.Open(*submission.FilePath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return reader, submission, nil
}

// Submit hands a draft over for review. Submitting again restamps the
// submission date and overwrites nothing else.
func (s *SubmissionService) Submit(ctx context.Context, actor models.Actor, id int64) (*models.Submission, error) {
	submission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsStudent(submission.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only submit their own submissions")
	}

	now := time.Now().UTC()
	submission.SubmissionDate = &now
	submission.Status = models.SubmissionSubmitted
	if err := s.repo.Update(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit")
	}

	s.notify(ctx, NotificationEvent{
		UserID:     actor.UserID,
		ActionType: "submission_received",
		Variables: map[string]string{
			"title":          submission.Title,
			"student_number": submission.StudentNumber,
		},
		RelatedEntityType: "submission",
		RelatedEntityID:   submission.ID,
	})
	return submission, nil
}

// StartReview marks a submission as under review by the caller.
func (s *SubmissionService) StartReview(ctx context.Context, actor models.Actor, id int64) (*models.Submission, error) {
	return s.decide(ctx, actor, id, models.SubmissionUnderReview, nil)
}

// Approve accepts a submission.
func (s *SubmissionService) Approve(ctx context.Context, actor models.Actor, id int64, req ReviewSubmissionRequest) (*models.Submission, error) {
	return s.decide(ctx, actor, id, models.SubmissionApproved, req.Comments)
}

// Reject declines a submission.
func (s *SubmissionService) Reject(ctx context.Context, actor models.Actor, id int64, req ReviewSubmissionRequest) (*models.Submission, error) {
	return s.decide(ctx, actor, id, models.SubmissionRejected, req.Comments)
}

// RequireRevision sends a submission back for changes.
func (s *SubmissionService) RequireRevision(ctx context.Context, actor models.Actor, id int64, req ReviewSubmissionRequest) (*models.Submission, error) {
	return s.decide(ctx, actor, id, models.SubmissionRevisionRequired, req.Comments)
}

// PendingReview lists submissions waiting on a reviewer, oldest first.
func (s *SubmissionService) PendingReview(ctx context.Context) ([]models.Submission, error) {
	submissions, err := s.repo.ListPendingReview(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending submissions")
	}
	return submissions, nil
}

func (s *SubmissionService) decide(ctx context.Context, actor models.Actor, id int64, status models.SubmissionStatus, comments *string) (*models.Submission, error) {
	submission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	submission.Status = status
	submission.ReviewedBy = &actor.UserID
	submission.ReviewDate = &now
	if comments != nil {
		submission.ReviewComments = comments
	}
	if err := s.repo.Update(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record review decision")
	}

	if status != models.SubmissionUnderReview {
		s.notify(ctx, NotificationEvent{
			UserID:     actor.UserID,
			ActionType: "submission_reviewed",
			Variables: map[string]string{
				"title":  submission.Title,
				"status": string(status),
			},
			RelatedEntityType: "submission",
			RelatedEntityID:   submission.ID,
		})
	}
	return submission, nil
}

// editable enforces the student editing rules: ownership, and content changes
// only while the submission is in draft. Staff roles may edit regardless of
// status.
func (s *SubmissionService) editable(ctx context.Context, actor models.Actor, id int64) (*models.Submission, error) {
	submission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsStudent(submission.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only edit their own submissions")
	}
	if actor.Role == models.RoleStudent && submission.Status != models.SubmissionDraft {
		return nil, appErrors.Clone(appErrors.ErrSubmissionNotDraft, "submission content can only be edited in draft")
	}
	return submission, nil
}

func (s *SubmissionService) load(ctx context.Context, id int64) (*models.Submission, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}

func (s *SubmissionService) notify(ctx context.Context, event NotificationEvent) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warn("failed to dispatch notification", zap.String("action", event.ActionType), zap.Error(err))
	}
}
