package models

import "time"

// Student represents a postgraduate research student. The student number is
// the natural primary key and is what user accounts with the student role
// carry as their username.
type Student struct {
	StudentNumber           string    `db:"student_number" json:"student_number"`
	Forename                string    `db:"forename" json:"forename"`
	Surname                 string    `db:"surname" json:"surname"`
	Cohort                  *string   `db:"cohort" json:"cohort,omitempty"`
	CourseCode              *string   `db:"course_code" json:"course_code,omitempty"`
	QuercusCourseName       *string   `db:"quercus_course_name" json:"quercus_course_name,omitempty"`
	SubjectArea             *string   `db:"subject_area" json:"subject_area,omitempty"`
	ProgrammeOfStudy        *string   `db:"programme_of_study" json:"programme_of_study,omitempty"`
	Mode                    *string   `db:"mode" json:"mode,omitempty"`
	InternationalStudent    bool      `db:"international_student" json:"international_student"`
	PreviousEHUStudent      bool      `db:"previous_ehu_student" json:"previous_ehu_student"`
	PreviousEHUndergraduate bool      `db:"previous_ehu_undergraduate" json:"previous_ehu_undergraduate"`
	PreviousEHUPGTStudent   bool      `db:"previous_ehu_pgt_student" json:"previous_ehu_pgt_student"`
	PreviousEHUMResStudent  bool      `db:"previous_ehu_mres_student" json:"previous_ehu_mres_student"`
	PreviousInstitution     *string   `db:"previous_institution" json:"previous_institution,omitempty"`
	StudentNotes            *string   `db:"student_notes" json:"student_notes,omitempty"`
	CreatedDate             time.Time `db:"created_date" json:"created_date"`
	UpdatedDate             time.Time `db:"updated_date" json:"updated_date"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search      string
	Cohort      string
	SubjectArea string
	Mode        string
	Page        int
	PageSize    int
}
