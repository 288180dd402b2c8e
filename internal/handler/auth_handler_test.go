package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/pgr-adp-api/internal/middleware"
	"github.com/noah-isme/pgr-adp-api/internal/models"
	"github.com/noah-isme/pgr-adp-api/internal/service"
)

type authRepoStub struct {
	users     map[string]models.User
	usersByID map[int64]models.User
	tokens    map[string]models.RefreshToken
	nextID    int64
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		users:     make(map[string]models.User),
		usersByID: make(map[int64]models.User),
		tokens:    make(map[string]models.RefreshToken),
	}
}

func (m *authRepoStub) seedUser(username, password string, role models.UserRole) models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	m.nextID++
	user := models.User{
		ID:             m.nextID,
		Username:       username,
		Email:          username + "@example.ac.uk",
		HashedPassword: string(hash),
		Role:           role,
		IsActive:       true,
	}
	m.users[username] = user
	m.usersByID[user.ID] = user
	return user
}

func (m *authRepoStub) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := m.users[username]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *authRepoStub) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.usersByID[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *authRepoStub) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *authRepoStub) Create(ctx context.Context, user *models.User) error {
	m.nextID++
	user.ID = m.nextID
	m.users[user.Username] = *user
	m.usersByID[user.ID] = *user
	return nil
}

func (m *authRepoStub) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	u := m.usersByID[id]
	u.HashedPassword = passwordHash
	m.usersByID[id] = u
	m.users[u.Username] = u
	return nil
}

func (m *authRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	for key, tok := range m.tokens {
		if tok.UserID == userID {
			tok.Revoked = true
			m.tokens[key] = tok
		}
	}
	return nil
}

func (m *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = *token
	return nil
}

func (m *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for key, tok := range m.tokens {
		if tok.ID == id {
			tok.Revoked = true
			tok.RevokedAt = &revokedAt
			m.tokens[key] = tok
		}
	}
	return nil
}

func (m *authRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func newAuthTestRouter(t *testing.T) (*gin.Engine, *authRepoStub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newAuthRepoStub()
	auth := service.NewAuthService(repo, nil, nil, service.AuthConfig{
		AccessTokenSecret:  "handler-test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "pgr-adp-api",
	})
	h := NewAuthHandler(auth)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.GET("/auth/me", middleware.JWT(auth), h.Me)
	return r, repo
}

func performJSON(r *gin.Engine, method, path string, payload interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandlerLogin(t *testing.T) {
	r, repo := newAuthTestRouter(t)
	repo.seedUser("aturing", "enigma-1912", models.RoleStudent)

	w := performJSON(r, http.MethodPost, "/auth/login", gin.H{
		"username": "aturing",
		"password": "enigma-1912",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.Equal(t, "bearer", envelope.Data.TokenType)
	assert.Equal(t, "aturing", envelope.Data.User.Username)
}

func TestAuthHandlerLoginRejectsWrongPassword(t *testing.T) {
	r, repo := newAuthTestRouter(t)
	repo.seedUser("aturing", "enigma-1912", models.RoleStudent)

	w := performJSON(r, http.MethodPost, "/auth/login", gin.H{
		"username": "aturing",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	r, repo := newAuthTestRouter(t)
	repo.seedUser("dosmith", "correct-horse", models.RoleDOS)

	login := performJSON(r, http.MethodPost, "/auth/login", gin.H{
		"username": "dosmith",
		"password": "correct-horse",
	}, nil)
	require.Equal(t, http.StatusOK, login.Code)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &envelope))

	me := performJSON(r, http.MethodGet, "/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + envelope.Data.AccessToken,
	})
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "dosmith")
}

func TestAuthHandlerMeRequiresToken(t *testing.T) {
	r, _ := newAuthTestRouter(t)

	w := performJSON(r, http.MethodGet, "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
