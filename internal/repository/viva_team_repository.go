package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

// VivaTeamRepository persists viva examination teams.
type VivaTeamRepository struct {
	db *sqlx.DB
}

// NewVivaTeamRepository constructs a VivaTeamRepository.
func NewVivaTeamRepository(db *sqlx.DB) *VivaTeamRepository {
	return &VivaTeamRepository{db: db}
}

// FindByID fetches a viva team by primary key.
func (r *VivaTeamRepository) FindByID(ctx context.Context, id int64) (*models.VivaTeam, error) {
	const query = `SELECT * FROM viva_teams WHERE id = $1`
	var team models.VivaTeam
	if err := r.db.GetContext(ctx, &team, query, id); err != nil {
		return nil, err
	}
	return &team, nil
}

// Create inserts a proposed viva team and populates the generated ID.
func (r *VivaTeamRepository) Create(ctx context.Context, team *models.VivaTeam) error {
	now := time.Now().UTC()
	team.CreatedDate = now
	team.UpdatedDate = now
	if team.Status == "" {
		team.Status = models.VivaProposed
	}
	const query = `INSERT INTO viva_teams (student_number, stage, status, internal_examiner_1_id, internal_examiner_2_id,
        external_examiner_name, external_examiner_email, external_examiner_institution, proposed_date, proposed_by,
        created_date, updated_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		team.StudentNumber, team.Stage, team.Status, team.InternalExaminer1ID, team.InternalExaminer2ID,
		team.ExternalExaminerName, team.ExternalExaminerEmail, team.ExternalExaminerInstitution,
		team.ProposedDate, team.ProposedBy, team.CreatedDate, team.UpdatedDate,
	).Scan(&team.ID); err != nil {
		return fmt.Errorf("create viva team: %w", err)
	}
	return nil
}

// Update rewrites every mutable viva team column.
func (r *VivaTeamRepository) Update(ctx context.Context, team *models.VivaTeam) error {
	team.UpdatedDate = time.Now().UTC()
	const query = `UPDATE viva_teams SET stage = :stage, status = :status,
        internal_examiner_1_id = :internal_examiner_1_id, internal_examiner_2_id = :internal_examiner_2_id,
        external_examiner_name = :external_examiner_name, external_examiner_email = :external_examiner_email,
        external_examiner_institution = :external_examiner_institution, proposed_date = :proposed_date,
        scheduled_date = :scheduled_date, actual_date = :actual_date, location = :location,
        outcome = :outcome, outcome_notes = :outcome_notes, rejection_reason = :rejection_reason,
        proposed_by = :proposed_by, approved_by = :approved_by, approval_date = :approval_date,
        updated_date = :updated_date
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, team); err != nil {
		return fmt.Errorf("update viva team: %w", err)
	}
	return nil
}

// List returns viva teams matching the filter plus the total match count.
func (r *VivaTeamRepository) List(ctx context.Context, filter models.VivaTeamFilter) ([]models.VivaTeam, int, error) {
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

	where := strings.Join(conditions, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf("SELECT * FROM viva_teams WHERE %s ORDER BY created_date DESC, id DESC LIMIT %d OFFSET %d", where, size, (page-1)*size)
	var teams []models.VivaTeam
	if err := r.db.SelectContext(ctx, &teams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list viva teams: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM viva_teams WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count viva teams: %w", err)
	}
	return teams, total, nil
}
