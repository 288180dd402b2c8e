package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/pgr-adp-api/internal/models"
)

func policyRouter(policy Policy, resource, action string, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe",
		func(c *gin.Context) {
			if claims != nil {
				c.Set(ContextUserKey, claims)
			}
			c.Next()
		},
		Require(policy, resource, action),
		func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	return r
}

func probe(r *gin.Engine) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAllowsListedRole(t *testing.T) {
	policy := Policy{{"students", "create"}: {models.RoleAcademicAdmin}}
	r := policyRouter(policy, "students", "create", &models.JWTClaims{UserID: 1, Role: models.RoleAcademicAdmin})

	assert.Equal(t, http.StatusOK, probe(r))
}

func TestRequireRejectsUnlistedRole(t *testing.T) {
	policy := Policy{{"students", "create"}: {models.RoleAcademicAdmin}}
	r := policyRouter(policy, "students", "create", &models.JWTClaims{UserID: 1, Role: models.RoleStudent})

	assert.Equal(t, http.StatusForbidden, probe(r))
}

func TestRequireRejectsMissingClaims(t *testing.T) {
	policy := Policy{{"students", "create"}: {models.RoleAcademicAdmin}}
	r := policyRouter(policy, "students", "create", nil)

	assert.Equal(t, http.StatusUnauthorized, probe(r))
}

func TestRequirePassesUnlistedOperation(t *testing.T) {
	r := policyRouter(Policy{}, "students", "read", &models.JWTClaims{UserID: 1, Role: models.RoleStudent})

	assert.Equal(t, http.StatusOK, probe(r))
}

func TestDefaultPolicyCoversSensitiveOperations(t *testing.T) {
	policy := DefaultPolicy()

	roles, ok := policy.Allowed("viva-teams", "outcome")
	assert.True(t, ok)
	assert.Equal(t, []models.UserRole{models.RoleGBOSApprover}, roles)

	roles, ok = policy.Allowed("users", "admin")
	assert.True(t, ok)
	assert.Equal(t, []models.UserRole{models.RoleSystemAdmin}, roles)
}
