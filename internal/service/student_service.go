package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
)

// notifier is the slice of NotificationService the workflow services use.
// Services treat a nil notifier as "notifications disabled".
type notifier interface {
	Notify(ctx context.Context, event NotificationEvent) (*models.Notification, error)
}

type studentRepository interface {
	FindByNumber(ctx context.Context, studentNumber string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, studentNumber string) error
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	StudentNumber           string  `json:"student_number" validate:"required"`
	Forename                string  `json:"forename" validate:"required"`
	Surname                 string  `json:"surname" validate:"required"`
	Cohort                  *string `json:"cohort"`
	CourseCode              *string `json:"course_code"`
	QuercusCourseName       *string `json:"quercus_course_name"`
	SubjectArea             *string `json:"subject_area"`
	ProgrammeOfStudy        *string `json:"programme_of_study"`
	Mode                    *string `json:"mode"`
	InternationalStudent    bool    `json:"international_student"`
	PreviousEHUStudent      bool    `json:"previous_ehu_student"`
	PreviousEHUndergraduate bool    `json:"previous_ehu_undergraduate"`
	PreviousEHUPGTStudent   bool    `json:"previous_ehu_pgt_student"`
	PreviousEHUMResStudent  bool    `json:"previous_ehu_mres_student"`
	PreviousInstitution     *string `json:"previous_institution"`
	StudentNotes            *string `json:"student_notes"`
}

// UpdateStudentRequest holds payload for updating students. The student
// number itself is immutable.
type UpdateStudentRequest struct {
	Forename                string  `json:"forename" validate:"required"`
	Surname                 string  `json:"surname" validate:"required"`
	Cohort                  *string `json:"cohort"`
	CourseCode              *string `json:"course_code"`
	QuercusCourseName       *string `json:"quercus_course_name"`
	SubjectArea             *string `json:"subject_area"`
	ProgrammeOfStudy        *string `json:"programme_of_study"`
	Mode                    *string `json:"mode"`
	InternationalStudent    bool    `json:"international_student"`
	PreviousEHUStudent      bool    `json:"previous_ehu_student"`
	PreviousEHUndergraduate bool    `json:"previous_ehu_undergraduate"`
	PreviousEHUPGTStudent   bool    `json:"previous_ehu_pgt_student"`
	PreviousEHUMResStudent  bool    `json:"previous_ehu_mres_student"`
	PreviousInstitution     *string `json:"previous_institution"`
	StudentNotes            *string `json:"student_notes"`
}

// StudentService handles student record use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns a single student. Callers with the student role may only read
// their own record.
func (s *StudentService) Get(ctx context.Context, actor models.Actor, studentNumber string) (*models.Student, error) {
	if !actor.OwnsStudent(studentNumber) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only access their own record")
	}
	student, err := s.repo.FindByNumber(ctx, studentNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student record.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if _, err := s.repo.FindByNumber(ctx, req.StudentNumber); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student number already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
	}

	student := &models.Student{
		StudentNumber:           req.StudentNumber,
		Forename:                req.Forename,
		Surname:                 req.Surname,
		Cohort:                  req.Cohort,
		CourseCode:              req.CourseCode,
		QuercusCourseName:       req.QuercusCourseName,
		SubjectArea:             req.SubjectArea,
		ProgrammeOfStudy:        req.ProgrammeOfStudy,
		Mode:                    req.Mode,
		InternationalStudent:    req.InternationalStudent,
		PreviousEHUStudent:      req.PreviousEHUStudent,
		PreviousEHUndergraduate: req.PreviousEHUndergraduate,
		PreviousEHUPGTStudent:   req.PreviousEHUPGTStudent,
		PreviousEHUMResStudent:  req.PreviousEHUMResStudent,
		PreviousInstitution:     req.PreviousInstitution,
		StudentNotes:            req.StudentNotes,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, studentNumber string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByNumber(ctx, studentNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	student.Forename = req.Forename
	student.Surname = req.Surname
	student.Cohort = req.Cohort
	student.CourseCode = req.CourseCode
	student.QuercusCourseName = req.QuercusCourseName
	student.SubjectArea = req.SubjectArea
	student.ProgrammeOfStudy = req.ProgrammeOfStudy
	student.Mode = req.Mode
	student.InternationalStudent = req.InternationalStudent
	student.PreviousEHUStudent = req.PreviousEHUStudent
	student.PreviousEHUndergraduate = req.PreviousEHUndergraduate
	student.PreviousEHUPGTStudent = req.PreviousEHUPGTStudent
	student.PreviousEHUMResStudent = req.PreviousEHUMResStudent
	student.PreviousInstitution = req.PreviousInstitution
	student.StudentNotes = req.StudentNotes

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, studentNumber string) error {
	if _, err := s.repo.FindByNumber(ctx, studentNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, studentNumber); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
