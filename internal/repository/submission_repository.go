package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

// SubmissionRepository persists document submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// FindByID fetches a submission by primary key.
func (r *SubmissionRepository) FindByID(ctx context.Context, id int64) (*models.Submission, error) {
	const query = `SELECT * FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// Create inserts a submission and populates the generated ID.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	now := time.Now().UTC()
	submission.CreatedDate = now
	submission.UpdatedDate = now
	if submission.Status == "" {
		submission.Status = models.SubmissionDraft
	}
	const query = `INSERT INTO submissions (student_number, submission_type, title, description, status, review_deadline, created_date, updated_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		submission.StudentNumber, submission.SubmissionType, submission.Title, submission.Description,
		submission.Status, submission.ReviewDeadline, submission.CreatedDate, submission.UpdatedDate,
	).Scan(&submission.ID); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// Update rewrites every mutable submission column.
func (r *SubmissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	submission.UpdatedDate = time.Now().UTC()
	const query = `UPDATE submissions SET submission_type = :submission_type, title = :title, description = :description,
        file_path = :file_path, file_name = :file_name, file_size = :file_size, mime_type = :mime_type,
        status = :status, submission_date = :submission_date, review_deadline = :review_deadline,
        reviewed_by = :reviewed_by, review_date = :review_date, review_comments = :review_comments,
        updated_date = :updated_date
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	return nil
}

// List returns submissions matching the filter plus the total match count.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentNumber != "" {
		conditions = append(conditions, fmt.Sprintf("student_number = $%d", len(args)+1))
		args = append(args, filter.StudentNumber)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("submission_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	where := strings.Join(conditions, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf("SELECT * FROM submissions WHERE %s ORDER BY created_date DESC, id DESC LIMIT %d OFFSET %d", where, size, (page-1)*size)
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM submissions WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	return submissions, total, nil
}

// ListPendingReview returns submissions waiting on a reviewer, oldest
// submission first.
func (r *SubmissionRepository) ListPendingReview(ctx context.Context) ([]models.Submission, error) {
	const query = `SELECT * FROM submissions WHERE status IN ($1, $2) ORDER BY submission_date ASC NULLS LAST, id ASC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, models.SubmissionSubmitted, models.SubmissionUnderReview); err != nil {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}
	return submissions, nil
}

// CountByStatus aggregates submissions per status.
func (r *SubmissionRepository) CountByStatus(ctx context.Context) ([]models.CountByLabel, error) {
	const query = `SELECT status AS label, COUNT(*) AS count FROM submissions GROUP BY status ORDER BY count DESC`
	var counts []models.CountByLabel
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count submissions by status: %w", err)
	}
	return counts, nil
}

// CountByType aggregates submissions per submission type.
func (r *SubmissionRepository) CountByType(ctx context.Context) ([]models.CountByLabel, error) {
	const query = `SELECT submission_type AS label, COUNT(*) AS count FROM submissions GROUP BY submission_type ORDER BY count DESC`
	var counts []models.CountByLabel
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count submissions by type: %w", err)
	}
	return counts, nil
}
