package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

// StudentRepository persists student records keyed by student number.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByNumber fetches a single student.
func (r *StudentRepository) FindByNumber(ctx context.Context, studentNumber string) (*models.Student, error) {
	const query = `SELECT * FROM students WHERE student_number = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentNumber); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student row.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedDate = now
	student.UpdatedDate = now
	const query = `INSERT INTO students (student_number, forename, surname, cohort, course_code, quercus_course_name, subject_area,
        programme_of_study, mode, international_student, previous_ehu_student, previous_ehu_undergraduate, previous_ehu_pgt_student,
        previous_ehu_mres_student, previous_institution, student_notes, created_date, updated_date)
        VALUES (:student_number, :forename, :surname, :cohort, :course_code, :quercus_course_name, :subject_area,
        :programme_of_study, :mode, :international_student, :previous_ehu_student, :previous_ehu_undergraduate, :previous_ehu_pgt_student,
        :previous_ehu_mres_student, :previous_institution, :student_notes, :created_date, :updated_date)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update rewrites a student's mutable fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedDate = time.Now().UTC()
	const query = `UPDATE students SET forename = :forename, surname = :surname, cohort = :cohort, course_code = :course_code,
        quercus_course_name = :quercus_course_name, subject_area = :subject_area, programme_of_study = :programme_of_study, mode = :mode,
        international_student = :international_student, previous_ehu_student = :previous_ehu_student,
        previous_ehu_undergraduate = :previous_ehu_undergraduate, previous_ehu_pgt_student = :previous_ehu_pgt_student,
        previous_ehu_mres_student = :previous_ehu_mres_student, previous_institution = :previous_institution,
        student_notes = :student_notes, updated_date = :updated_date
        WHERE student_number = :student_number`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, studentNumber string) error {
	const query = `DELETE FROM students WHERE student_number = $1`
	result, err := r.db.ExecContext(ctx, query, studentNumber)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("student %s not found", studentNumber)
	}
	return nil
}

// List returns students matching the filter plus the total match count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(forename) LIKE $%d OR LOWER(surname) LIKE $%d OR LOWER(student_number) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Cohort != "" {
		conditions = append(conditions, fmt.Sprintf("cohort = $%d", len(args)+1))
		args = append(args, filter.Cohort)
	}
	if filter.SubjectArea != "" {
		conditions = append(conditions, fmt.Sprintf("subject_area = $%d", len(args)+1))
		args = append(args, filter.SubjectArea)
	}
	if filter.Mode != "" {
		conditions = append(conditions, fmt.Sprintf("mode = $%d", len(args)+1))
		args = append(args, filter.Mode)
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

	query := fmt.Sprintf("SELECT * FROM students WHERE %s ORDER BY surname ASC, forename ASC LIMIT %d OFFSET %d", where, size, (page-1)*size)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM students WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}
