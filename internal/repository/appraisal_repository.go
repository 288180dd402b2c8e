package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

// AppraisalRepository persists annual progress appraisals.
type AppraisalRepository struct {
	db *sqlx.DB
}

// NewAppraisalRepository constructs an AppraisalRepository.
func NewAppraisalRepository(db *sqlx.DB) *AppraisalRepository {
	return &AppraisalRepository{db: db}
}

// FindByID fetches an appraisal by primary key.
func (r *AppraisalRepository) FindByID(ctx context.Context, id int64) (*models.Appraisal, error) {
	const query = `SELECT * FROM appraisals WHERE id = $1`
	var appraisal models.Appraisal
	if err := r.db.GetContext(ctx, &appraisal, query, id); err != nil {
		return nil, err
	}
	return &appraisal, nil
}

// Create inserts a new appraisal and populates the generated ID.
func (r *AppraisalRepository) Create(ctx context.Context, appraisal *models.Appraisal) error {
	now := time.Now().UTC()
	appraisal.CreatedDate = now
	appraisal.UpdatedDate = now
	if appraisal.Status == "" {
		appraisal.Status = models.AppraisalPending
	}
	const query = `INSERT INTO appraisals (student_number, academic_year, appraisal_period, due_date, status, action_required, created_date, updated_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		appraisal.StudentNumber, appraisal.AcademicYear, appraisal.AppraisalPeriod, appraisal.DueDate,
		appraisal.Status, appraisal.ActionRequired, appraisal.CreatedDate, appraisal.UpdatedDate,
	).Scan(&appraisal.ID); err != nil {
		return fmt.Errorf("create appraisal: %w", err)
	}
	return nil
}

// Update rewrites every mutable appraisal column. Workflow steps load the
// row, mutate the fields they own and save it back whole.
func (r *AppraisalRepository) Update(ctx context.Context, appraisal *models.Appraisal) error {
	appraisal.UpdatedDate = time.Now().UTC()
	const query = `UPDATE appraisals SET academic_year = :academic_year, appraisal_period = :appraisal_period, due_date = :due_date,
        student_submission_date = :student_submission_date, dos_submission_date = :dos_submission_date, review_date = :review_date,
        student_progress_report = :student_progress_report, student_achievements = :student_achievements,
        student_challenges = :student_challenges, student_goals = :student_goals, student_development_needs = :student_development_needs,
        dos_comments = :dos_comments, dos_progress_rating = :dos_progress_rating, dos_recommendations = :dos_recommendations,
        status = :status, reviewer_id = :reviewer_id, reviewer_comments = :reviewer_comments, approved_by = :approved_by,
        action_required = :action_required, action_description = :action_description, action_deadline = :action_deadline,
        updated_date = :updated_date
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, appraisal); err != nil {
		return fmt.Errorf("update appraisal: %w", err)
	}
	return nil
}

// List returns appraisals matching the filter plus the total match count.
func (r *AppraisalRepository) List(ctx context.Context, filter models.AppraisalFilter) ([]models.Appraisal, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentNumber != "" {
		conditions = append(conditions, fmt.Sprintf("student_number = $%d", len(args)+1))
		args = append(args, filter.StudentNumber)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
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

	query := fmt.Sprintf("SELECT * FROM appraisals WHERE %s ORDER BY due_date ASC NULLS LAST, id ASC LIMIT %d OFFSET %d", where, size, (page-1)*size)
	var appraisals []models.Appraisal
	if err := r.db.SelectContext(ctx, &appraisals, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list appraisals: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM appraisals WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count appraisals: %w", err)
	}
	return appraisals, total, nil
}

// CountByStatus aggregates appraisals per workflow status.
func (r *AppraisalRepository) CountByStatus(ctx context.Context) ([]models.CountByLabel, error) {
	const query = `SELECT status AS label, COUNT(*) AS count FROM appraisals GROUP BY status ORDER BY count DESC`
	var counts []models.CountByLabel
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count appraisals by status: %w", err)
	}
	return counts, nil
}
