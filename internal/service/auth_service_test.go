package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/pgr-adp-api/internal/models"
	appErrors "github.com/noah-isme/pgr-adp-api/pkg/errors"
)

type mockAuthRepo struct {
	users      map[string]models.User
	usersByID  map[int64]models.User
	tokens     map[string]models.RefreshToken
	auditLogs  []models.AuditLog
	nextUserID int64
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:     make(map[string]models.User),
		usersByID: make(map[int64]models.User),
		tokens:    make(map[string]models.RefreshToken),
	}
}

func (m *mockAuthRepo) seedUser(username, password string, role models.UserRole, active bool) models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	m.nextUserID++
	user := models.User{
		ID:             m.nextUserID,
		Username:       username,
		Email:          username + "@example.ac.uk",
		HashedPassword: string(hash),
		Role:           role,
		IsActive:       active,
	}
	m.users[username] = user
	m.usersByID[user.ID] = user
	return user
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := m.users[username]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.usersByID[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	m.nextUserID++
	user.ID = m.nextUserID
	m.users[user.Username] = *user
	m.usersByID[user.ID] = *user
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	u := m.usersByID[id]
	u.HashedPassword = passwordHash
	m.usersByID[id] = u
	m.users[u.Username] = u
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	for key, tok := range m.tokens {
		if tok.UserID == userID {
			tok.Revoked = true
			m.tokens[key] = tok
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = *token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for key, tok := range m.tokens {
		if tok.ID == id {
			tok.Revoked = true
			tok.RevokedAt = &revokedAt
			m.tokens[key] = tok
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "pgr-adp-api",
	})
}

func TestAuthLoginSuccess(t *testing.T) {
	repo := newMockAuthRepo()
	repo.seedUser("24001234", "correct-horse", models.RoleStudent, true)
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "24001234", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "24001234", resp.User.Username)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "24001234", claims.Username)
	assert.Equal(t, models.RoleStudent, claims.Role)

	require.NotEmpty(t, repo.auditLogs)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	repo.seedUser("24001234", "correct-horse", models.RoleStudent, true)
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "24001234", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	repo := newMockAuthRepo()
	repo.seedUser("staffer", "correct-horse", models.RoleAcademicAdmin, false)
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "staffer", Password: "correct-horse"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthRegisterDuplicate(t *testing.T) {
	repo := newMockAuthRepo()
	repo.seedUser("staffer", "correct-horse", models.RoleAcademicAdmin, true)
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "staffer",
		Email:    "staffer@example.ac.uk",
		Password: "longenough",
		Role:     models.RoleAcademicAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.seedUser("24001234", "correct-horse", models.RoleStudent, true)
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "24001234", Password: "correct-horse"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token was revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthLogoutRejectsForeignToken(t *testing.T) {
	repo := newMockAuthRepo()
	owner := repo.seedUser("24001234", "correct-horse", models.RoleStudent, true)
	repo.seedUser("24005678", "correct-horse", models.RoleStudent, true)
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "24001234", Password: "correct-horse"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, owner.ID+1, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, owner.ID, "", ""))
}

func TestAuthChangePasswordRevokesSessions(t *testing.T) {
	repo := newMockAuthRepo()
	user := repo.seedUser("24001234", "correct-horse", models.RoleStudent, true)
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "24001234", Password: "correct-horse"})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "evenlonger1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "correct-horse",
		NewPassword: "evenlonger1",
	}))

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "24001234", Password: "evenlonger1"})
	require.NoError(t, err)
}

func TestAuthValidateTokenBadSecret(t *testing.T) {
	repo := newMockAuthRepo()
	repo.seedUser("24001234", "correct-horse", models.RoleStudent, true)
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "24001234", Password: "correct-horse"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: 15 * time.Minute,
	})
	_, err = other.ValidateToken(login.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
