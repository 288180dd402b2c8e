package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

// TimelineRepository persists research timeline milestones.
type TimelineRepository struct {
	db *sqlx.DB
}

// NewTimelineRepository constructs a TimelineRepository.
func NewTimelineRepository(db *sqlx.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// FindByID fetches a single milestone.
func (r *TimelineRepository) FindByID(ctx context.Context, id int64) (*models.Timeline, error) {
	const query = `SELECT * FROM timelines WHERE id = $1`
	var milestone models.Timeline
	if err := r.db.GetContext(ctx, &milestone, query, id); err != nil {
		return nil, err
	}
	return &milestone, nil
}

// Create inserts a milestone and populates the generated ID.
func (r *TimelineRepository) Create(ctx context.Context, milestone *models.Timeline) error {
	const query = `INSERT INTO timelines (student_number, stage, milestone_name, planned_date, actual_date, status, description, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		milestone.StudentNumber, milestone.Stage, milestone.MilestoneName, milestone.PlannedDate,
		milestone.ActualDate, milestone.Status, milestone.Description, milestone.Notes,
	).Scan(&milestone.ID); err != nil {
		return fmt.Errorf("create timeline milestone: %w", err)
	}
	return nil
}

// Update rewrites a milestone row.
func (r *TimelineRepository) Update(ctx context.Context, milestone *models.Timeline) error {
	const query = `UPDATE timelines SET stage = :stage, milestone_name = :milestone_name, planned_date = :planned_date,
        actual_date = :actual_date, status = :status, description = :description, notes = :notes
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, milestone); err != nil {
		return fmt.Errorf("update timeline milestone: %w", err)
	}
	return nil
}

// Delete removes a milestone.
func (r *TimelineRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM timelines WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timeline milestone: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete timeline milestone rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("timeline milestone %d not found", id)
	}
	return nil
}

// List returns milestones matching the filter ordered by planned date.
func (r *TimelineRepository) List(ctx context.Context, filter models.TimelineFilter) ([]models.Timeline, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentNumber != "" {
		conditions = append(conditions, fmt.Sprintf("student_number = $%d", len(args)+1))
		args = append(args, filter.StudentNumber)
	}
	if filter.Stage != "" {
		conditions = append(conditions, fmt.Sprintf("stage = $%d", len(args)+1))
		args = append(args, filter.Stage)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	query := fmt.Sprintf("SELECT * FROM timelines WHERE %s ORDER BY planned_date ASC NULLS LAST, id ASC", strings.Join(conditions, " AND "))
	var milestones []models.Timeline
	if err := r.db.SelectContext(ctx, &milestones, query, args...); err != nil {
		return nil, fmt.Errorf("list timeline milestones: %w", err)
	}
	return milestones, nil
}

// MarkOverdue flags pending milestones whose planned date has passed and
// returns how many rows changed.
func (r *TimelineRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	const query = `UPDATE timelines SET status = $1 WHERE status = $2 AND planned_date IS NOT NULL AND planned_date < $3`
	result, err := r.db.ExecContext(ctx, query, models.MilestoneOverdue, models.MilestonePending, asOf)
	if err != nil {
		return 0, fmt.Errorf("mark overdue milestones: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark overdue rows affected: %w", err)
	}
	return rows, nil
}
