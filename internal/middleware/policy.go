package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
	"github.com/noah-isme/pgr-adp-api/pkg/response"
)

// Operation names a role-gated action on a resource.
type Operation struct {
	Resource string
	Action   string
}

// Policy is the single authorization table for the API: every role-gated
// endpoint consults it through Require. Ownership ("a student may only act
// on their own records") is a separate check enforced in the service layer;
// both must pass.
type Policy map[Operation][]models.UserRole

// DefaultPolicy returns the allow-lists for every operation the API exposes.
// Operations absent from the table only require authentication.
func DefaultPolicy() Policy {
	return Policy{
		{"students", "create"}: {models.RoleSystemAdmin, models.RoleAcademicAdmin},
		{"students", "update"}: {models.RoleSystemAdmin, models.RoleAcademicAdmin, models.RoleGBOSAdmin},
		{"students", "delete"}: {models.RoleSystemAdmin},

		{"supervisors", "create"}: {models.RoleSystemAdmin, models.RoleGBOSAdmin},
		{"supervisors", "update"}: {models.RoleSystemAdmin, models.RoleGBOSAdmin},
		{"supervisors", "delete"}: {models.RoleSystemAdmin},

		{"student-supervisors", "create"}: {models.RoleSystemAdmin, models.RoleAcademicAdmin, models.RoleGBOSAdmin, models.RoleDOS},
		{"student-supervisors", "update"}: {models.RoleSystemAdmin, models.RoleAcademicAdmin, models.RoleGBOSAdmin, models.RoleDOS},
		{"student-supervisors", "delete"}: {models.RoleSystemAdmin, models.RoleGBOSAdmin},

		{"registrations", "create"}:            {models.RoleSystemAdmin, models.RoleAcademicAdmin, models.RoleGBOSAdmin},
		{"registrations", "update"}:            {models.RoleSystemAdmin, models.RoleAcademicAdmin, models.RoleGBOSAdmin},
		{"registrations", "request-extension"}: {models.RoleSystemAdmin, models.RoleAcademicAdmin, models.RoleGBOSAdmin, models.RoleDOS},
		{"registrations", "approve-extension"}: {models.RoleSystemAdmin, models.RoleGBOSAdmin},

		{"timelines", "create"}:   {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS},
		{"timelines", "update"}:   {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS},
		{"timelines", "complete"}: {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS, models.RoleStudent},
		{"timelines", "delete"}:   {models.RoleSystemAdmin, models.RoleGBOSAdmin},

		{"appraisals", "create"}:            {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS},
		{"appraisals", "submit-dos"}:        {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS},
		{"appraisals", "review"}:            {models.RoleSystemAdmin, models.RoleGBOSAdmin},
		{"appraisals", "approve"}:           {models.RoleSystemAdmin, models.RoleGBOSAdmin},

		{"submissions", "approve"}: {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS, models.RoleExaminer},
		{"submissions", "reject"}:  {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS, models.RoleExaminer},
		{"submissions", "review"}:  {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS, models.RoleExaminer},
		{"submissions", "pending"}: {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS, models.RoleExaminer, models.RoleSupervisor},

		{"viva-teams", "propose"}:  {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS},
		{"viva-teams", "update"}:   {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS},
		{"viva-teams", "approve"}:  {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleGBOSApprover},
		{"viva-teams", "reject"}:   {models.RoleSystemAdmin, models.RoleGBOSAdmin},
		{"viva-teams", "schedule"}: {models.RoleSystemAdmin, models.RoleGBOSAdmin},
		{"viva-teams", "outcome"}:  {models.RoleGBOSApprover},

		{"reports", "read"}:   {models.RoleSystemAdmin, models.RoleGBOSAdmin, models.RoleDOS},
		{"reports", "export"}: {models.RoleSystemAdmin, models.RoleGBOSAdmin},

		{"notifications", "create"}: {models.RoleSystemAdmin, models.RoleAcademicAdmin, models.RoleGBOSAdmin},
		{"notifications", "retry"}:  {models.RoleSystemAdmin},

		{"users", "admin"}: {models.RoleSystemAdmin},
	}
}

// Allowed returns the allow-list for an operation and whether one exists.
func (p Policy) Allowed(resource, action string) ([]models.UserRole, bool) {
	roles, ok := p[Operation{Resource: resource, Action: action}]
	return roles, ok
}

// Require returns middleware enforcing the policy entry for the operation.
// Missing claims yield 401; a role outside the allow-list yields 403 with a
// message listing the caller's role, the accepted roles, and every system
// role.
func Require(policy Policy, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		allowed, ok := policy.Allowed(resource, action)
		if !ok {
			c.Next()
			return
		}

		for _, role := range allowed {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		accepted := make([]string, len(allowed))
		for i, role := range allowed {
			accepted[i] = string(role)
		}
		response.Error(c, appErrors.Forbidden(string(claims.Role), accepted, models.AllRoleStrings()))
		c.Abort()
	}
}
