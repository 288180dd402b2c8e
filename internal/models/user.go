package models

import "time"

// UserRole represents the closed set of roles recognised by the RBAC system.
type UserRole string

const (
	RoleSystemAdmin         UserRole = "system_admin"
	RoleAcademicAdmin       UserRole = "academic_admin"
	RoleGBOSAdmin           UserRole = "gbos_admin"
	RoleGBOSApprover        UserRole = "gbos_approver"
	RoleDOS                 UserRole = "dos"
	RoleSupervisor          UserRole = "supervisor"
	RoleStudent             UserRole = "student"
	RoleExaminer            UserRole = "examiner"
	RoleEthicsAdmin         UserRole = "ethics_admin"
	RoleInternationalOffice UserRole = "international_office"
	RoleResearchOffice      UserRole = "research_office"
	RoleFinanceAdmin        UserRole = "finance_admin"
	RoleHRRepresentative    UserRole = "hr_representative"
	RoleUser                UserRole = "user"
)

// AllRoles lists every role in the system, in a stable order. Permission
// errors enumerate this list for diagnostics.
func AllRoles() []UserRole {
	return []UserRole{
		RoleSystemAdmin, RoleAcademicAdmin, RoleGBOSAdmin, RoleGBOSApprover,
		RoleDOS, RoleSupervisor, RoleStudent, RoleExaminer, RoleEthicsAdmin,
		RoleInternationalOffice, RoleResearchOffice, RoleFinanceAdmin,
		RoleHRRepresentative, RoleUser,
	}
}

// AllRoleStrings returns AllRoles as plain strings.
func AllRoleStrings() []string {
	roles := AllRoles()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// User represents an application account stored in the users table.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	Role           UserRole  `db:"role" json:"role"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	IsVerified     bool      `db:"is_verified" json:"is_verified"`
	FirstName      *string   `db:"first_name" json:"first_name,omitempty"`
	LastName       *string   `db:"last_name" json:"last_name,omitempty"`
	Department     *string   `db:"department" json:"department,omitempty"`
	PhoneNumber    *string   `db:"phone_number" json:"phone_number,omitempty"`
	CreatedDate    time.Time `db:"created_date" json:"created_date"`
	UpdatedDate    time.Time `db:"updated_date" json:"updated_date"`
}

// Actor identifies the authenticated caller inside service operations.
// Student accounts use their student number as username, which is what
// ownership checks compare against.
type Actor struct {
	UserID   int64
	Username string
	Role     UserRole
}

// OwnsStudent reports whether the actor may act on records owned by the
// given student number. Non-student roles always pass; the role allow-list
// is enforced separately.
func (a Actor) OwnsStudent(studentNumber string) bool {
	if a.Role != RoleStudent {
		return true
	}
	return a.Username == studentNumber
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	IsActive *bool
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
