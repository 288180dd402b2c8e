package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

// StudentSupervisorRepository persists the student/supervisor link table.
type StudentSupervisorRepository struct {
	db *sqlx.DB
}

// NewStudentSupervisorRepository constructs a StudentSupervisorRepository.
func NewStudentSupervisorRepository(db *sqlx.DB) *StudentSupervisorRepository {
	return &StudentSupervisorRepository{db: db}
}

// FindByID fetches a single link row.
func (r *StudentSupervisorRepository) FindByID(ctx context.Context, id int64) (*models.StudentSupervisor, error) {
	const query = `SELECT * FROM student_supervisors WHERE student_supervisor_id = $1`
	var link models.StudentSupervisor
	if err := r.db.GetContext(ctx, &link, query, id); err != nil {
		return nil, err
	}
	return &link, nil
}

// Create links a student with a supervisor.
func (r *StudentSupervisorRepository) Create(ctx context.Context, link *models.StudentSupervisor) error {
	const query = `INSERT INTO student_supervisors (student_number, supervisor_id, role, start_date, end_date, supervision_notes)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING student_supervisor_id`
	if err := r.db.QueryRowxContext(ctx, query,
		link.StudentNumber, link.SupervisorID, link.Role, link.StartDate, link.EndDate, link.SupervisionNotes,
	).Scan(&link.StudentSupervisorID); err != nil {
		return fmt.Errorf("create student supervisor: %w", err)
	}
	return nil
}

// Update rewrites a link row.
func (r *StudentSupervisorRepository) Update(ctx context.Context, link *models.StudentSupervisor) error {
	const query = `UPDATE student_supervisors SET role = :role, start_date = :start_date, end_date = :end_date,
        supervision_notes = :supervision_notes WHERE student_supervisor_id = :student_supervisor_id`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("update student supervisor: %w", err)
	}
	return nil
}

// Delete removes a link row.
func (r *StudentSupervisorRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM student_supervisors WHERE student_supervisor_id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete student supervisor: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student supervisor rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("student supervisor %d not found", id)
	}
	return nil
}

// ListByStudent returns all supervision links for a student.
func (r *StudentSupervisorRepository) ListByStudent(ctx context.Context, studentNumber string) ([]models.StudentSupervisor, error) {
	const query = `SELECT * FROM student_supervisors WHERE student_number = $1 ORDER BY student_supervisor_id ASC`
	var links []models.StudentSupervisor
	if err := r.db.SelectContext(ctx, &links, query, studentNumber); err != nil {
		return nil, fmt.Errorf("list student supervisors: %w", err)
	}
	return links, nil
}

// ListBySupervisor returns all supervision links held by a supervisor.
func (r *StudentSupervisorRepository) ListBySupervisor(ctx context.Context, supervisorID int64) ([]models.StudentSupervisor, error) {
	const query = `SELECT * FROM student_supervisors WHERE supervisor_id = $1 ORDER BY student_supervisor_id ASC`
	var links []models.StudentSupervisor
	if err := r.db.SelectContext(ctx, &links, query, supervisorID); err != nil {
		return nil, fmt.Errorf("list supervisor links: %w", err)
	}
	return links, nil
}
