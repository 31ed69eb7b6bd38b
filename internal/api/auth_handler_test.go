package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"femiforge/media-api/internal/domain"
	"femiforge/media-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newAuthRouter(t *testing.T, authSvc service.AuthService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, testJWTSecret, authSvc, new(mockAssetService), t.TempDir())
	return router
}

func TestLoginReturnsTokenAndUser(t *testing.T) {
	authSvc := new(mockAuthService)
	router := newAuthRouter(t, authSvc)

	user := &domain.User{
		ID:        primitive.NewObjectID(),
		Email:     "admin@example.com",
		Role:      domain.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	authSvc.On("Login", mock.Anything, "admin@example.com", "secret").
		Return("signed-token", user, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"admin@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "signed-token", body.Token)
	assert.Equal(t, user.ID.Hex(), body.User.ID)
	assert.Equal(t, domain.RoleAdmin, body.User.Role)
}

func TestLoginBadCredentials(t *testing.T) {
	authSvc := new(mockAuthService)
	router := newAuthRouter(t, authSvc)

	authSvc.On("Login", mock.Anything, "admin@example.com", "wrong").
		Return("", nil, service.ErrAuthenticationFailed)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"admin@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(router, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	router := newAuthRouter(t, new(mockAuthService))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	w := doRequest(router, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeReturnsCaller(t *testing.T) {
	authSvc := new(mockAuthService)
	router := newAuthRouter(t, authSvc)

	user := &domain.User{
		ID:    primitive.NewObjectID(),
		Email: "admin@example.com",
		Role:  domain.RoleAdmin,
	}
	authSvc.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, user.ID, domain.RoleAdmin))
	w := doRequest(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool         `json:"success"`
		User    UserResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, user.Email, body.User.Email)
}

func TestMeWithoutToken(t *testing.T) {
	router := newAuthRouter(t, new(mockAuthService))
	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
