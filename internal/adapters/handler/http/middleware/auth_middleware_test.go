package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	users := repository.NewMemoryStore().Users()
	user := &domain.User{ID: "user-123", Email: "mw@kanso.app", PasswordHash: "hash"}
	require.NoError(t, users.Create(context.Background(), user))

	tokens := services.NewTokenService("test-secret-middleware", "test-issuer", time.Hour, users)
	expired := services.NewTokenService("test-secret-middleware", "test-issuer", -time.Minute, users)
	foreign := services.NewTokenService("another-secret", "test-issuer", time.Hour, users)

	router := gin.New()
	router.Use(AuthMiddleware(tokens))
	router.GET("/protected", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.String(http.StatusInternalServerError, "UserID not found in context")
			return
		}
		c.String(http.StatusOK, "Hello "+userID)
	})

	token := func(svc *services.TokenService, userID string) string {
		s, err := svc.GenerateToken(userID)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{name: "Valid token", header: "Bearer " + token(tokens, user.ID), wantCode: http.StatusOK, wantBody: "Hello user-123"},
		{name: "Scheme is case insensitive", header: "bearer " + token(tokens, user.ID), wantCode: http.StatusOK},
		{name: "Missing header", header: "", wantCode: http.StatusUnauthorized, wantBody: "authorization header required"},
		{name: "Wrong scheme", header: "Basic abc", wantCode: http.StatusUnauthorized, wantBody: "invalid authorization header format"},
		{name: "Extra fields", header: "Bearer a b", wantCode: http.StatusUnauthorized, wantBody: "invalid authorization header format"},
		{name: "Garbage token", header: "Bearer not-a-jwt", wantCode: http.StatusUnauthorized, wantBody: "invalid or expired token"},
		{name: "Expired token", header: "Bearer " + token(expired, user.ID), wantCode: http.StatusUnauthorized},
		{name: "Signed with another secret", header: "Bearer " + token(foreign, user.ID), wantCode: http.StatusUnauthorized},
		{name: "User no longer exists", header: "Bearer " + token(tokens, "ghost"), wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestGetUserID_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)

	c.Set(ContextUserIDKey, 42)
	_, ok = GetUserID(c)
	assert.False(t, ok)
}
