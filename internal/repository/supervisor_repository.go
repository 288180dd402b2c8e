package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

// SupervisorRepository persists supervisor records.
type SupervisorRepository struct {
	db *sqlx.DB
}

// NewSupervisorRepository constructs a SupervisorRepository.
func NewSupervisorRepository(db *sqlx.DB) *SupervisorRepository {
	return &SupervisorRepository{db: db}
}

// FindByID fetches a supervisor by primary key.
func (r *SupervisorRepository) FindByID(ctx context.Context, id int64) (*models.Supervisor, error) {
	const query = `SELECT * FROM supervisors WHERE supervisor_id = $1`
	var supervisor models.Supervisor
	if err := r.db.GetContext(ctx, &supervisor, query, id); err != nil {
		return nil, err
	}
	return &supervisor, nil
}

// Create inserts a supervisor and populates the generated ID.
func (r *SupervisorRepository) Create(ctx context.Context, supervisor *models.Supervisor) error {
	supervisor.CreatedDate = time.Now().UTC()
	const query = `INSERT INTO supervisors (supervisor_name, email, department, supervisor_notes, created_date)
        VALUES ($1, $2, $3, $4, $5) RETURNING supervisor_id`
	if err := r.db.QueryRowxContext(ctx, query,
		supervisor.SupervisorName, supervisor.Email, supervisor.Department, supervisor.SupervisorNotes, supervisor.CreatedDate,
	).Scan(&supervisor.SupervisorID); err != nil {
		return fmt.Errorf("create supervisor: %w", err)
	}
	return nil
}

// Update modifies a supervisor's fields.
func (r *SupervisorRepository) Update(ctx context.Context, supervisor *models.Supervisor) error {
	const query = `UPDATE supervisors SET supervisor_name = :supervisor_name, email = :email, department = :department,
        supervisor_notes = :supervisor_notes WHERE supervisor_id = :supervisor_id`
	if _, err := r.db.NamedExecContext(ctx, query, supervisor); err != nil {
		return fmt.Errorf("update supervisor: %w", err)
	}
	return nil
}

// List returns supervisors matching an optional name/department search.
func (r *SupervisorRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.Supervisor, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(supervisor_name) LIKE $%d OR LOWER(department) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(search)+"%")
	}

	where := strings.Join(conditions, " AND ")
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	query := fmt.Sprintf("SELECT * FROM supervisors WHERE %s ORDER BY supervisor_name ASC LIMIT %d OFFSET %d", where, pageSize, (page-1)*pageSize)
	var supervisors []models.Supervisor
	if err := r.db.SelectContext(ctx, &supervisors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list supervisors: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM supervisors WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count supervisors: %w", err)
	}
	return supervisors, total, nil
}
