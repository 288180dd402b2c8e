package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

// RegistrationRepository persists registration rows. Each student holds at
// most one registration.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// FindByID fetches a registration by primary key.
func (r *RegistrationRepository) FindByID(ctx context.Context, id int64) (*models.Registration, error) {
	const query = `SELECT * FROM registrations WHERE registration_id = $1`
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		return nil, err
	}
	return &registration, nil
}

// ExistsByStudent reports whether a student already has a registration.
func (r *RegistrationRepository) ExistsByStudent(ctx context.Context, studentNumber string) (bool, error) {
	const query = `SELECT 1 FROM registrations WHERE student_number = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentNumber); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// Create inserts a registration and populates the generated ID.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	now := time.Now().UTC()
	registration.CreatedDate = now
	registration.UpdatedDate = now
	const query = `INSERT INTO registrations (student_number, registration_status, original_registration_deadline,
        registration_extension_request_date, date_of_registration_extension_approval, registration_extension_length_days,
        revised_registration_deadline, date_pgr_moved_to_new_blackboard_group, pgr_registration_process_completed,
        created_date, updated_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING registration_id`
	if err := r.db.QueryRowxContext(ctx, query,
		registration.StudentNumber, registration.RegistrationStatus, registration.OriginalRegistrationDeadline,
		registration.RegistrationExtensionRequestDate, registration.DateOfExtensionApproval, registration.RegistrationExtensionLengthDays,
		registration.RevisedRegistrationDeadline, registration.DatePGRMovedToNewBlackboardGroup, registration.PGRRegistrationProcessCompleted,
		registration.CreatedDate, registration.UpdatedDate,
	).Scan(&registration.RegistrationID); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// Update rewrites all mutable registration fields.
func (r *RegistrationRepository) Update(ctx context.Context, registration *models.Registration) error {
	registration.UpdatedDate = time.Now().UTC()
	const query = `UPDATE registrations SET registration_status = :registration_status,
        original_registration_deadline = :original_registration_deadline,
        registration_extension_request_date = :registration_extension_request_date,
        date_of_registration_extension_approval = :date_of_registration_extension_approval,
        registration_extension_length_days = :registration_extension_length_days,
        revised_registration_deadline = :revised_registration_deadline,
        date_pgr_moved_to_new_blackboard_group = :date_pgr_moved_to_new_blackboard_group,
        pgr_registration_process_completed = :pgr_registration_process_completed,
        updated_date = :updated_date
        WHERE registration_id = :registration_id`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	return nil
}

// List returns registrations matching the filter plus the total match count.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentNumber != "" {
		conditions = append(conditions, fmt.Sprintf("student_number = $%d", len(args)+1))
		args = append(args, filter.StudentNumber)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("registration_status = $%d", len(args)+1))
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

	query := fmt.Sprintf("SELECT * FROM registrations WHERE %s ORDER BY registration_id ASC LIMIT %d OFFSET %d", where, size, (page-1)*size)
	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM registrations WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return registrations, total, nil
}
