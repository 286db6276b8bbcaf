package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/testutils"
	"github.com/ativix/ativix/pkg/config"
	apperrors "github.com/ativix/ativix/pkg/errors"
	"github.com/ativix/ativix/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator map[string]*model.User

func (s stubValidator) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	if token == "tok-db-down" {
		return nil, apperrors.InternalServer("Erro ao autenticar", errors.New("connection refused"))
	}
	return nil, errors.New("token desconhecido")
}

func authRouter(t *testing.T) *gin.Engine {
	validator := stubValidator{
		"tok-admin": {ID: "a1", Username: "ana", Role: model.RoleAdmin},
		"tok-user":  {ID: "u1", Username: "bruno", Role: model.RoleUser},
	}
	auth := NewAuthMiddleware(validator, testutils.TestLogger(t))

	router := testutils.SetupTestRouter(t)
	whoami := func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	}
	router.GET("/me", auth.Authenticate, whoami)
	router.GET("/admin", auth.AuthenticateAdmin, whoami)
	return router
}

func TestAuthenticate(t *testing.T) {
	router := authRouter(t)

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		status  int
		message string
	}{
		{"sem cabeçalho", "/me", nil, http.StatusUnauthorized, MsgMissingToken},
		{"formato inválido", "/me", map[string]string{"Authorization": "tok-user"}, http.StatusUnauthorized, MsgTokenFormat},
		{"esquema errado", "/me", map[string]string{"Authorization": "Basic tok-user"}, http.StatusUnauthorized, MsgTokenFormat},
		{"token inválido", "/me", testutils.BearerHeader("xyz"), http.StatusUnauthorized, MsgInvalidToken},
		{"falha do banco não vira 401", "/me", testutils.BearerHeader("tok-db-down"), http.StatusInternalServerError, "Erro ao autenticar"},
		{"usuário comum", "/me", testutils.BearerHeader("tok-user"), http.StatusOK, ""},
		{"admin exige papel", "/admin", testutils.BearerHeader("tok-user"), http.StatusForbidden, MsgAdminOnly},
		{"admin", "/admin", testutils.BearerHeader("tok-admin"), http.StatusOK, ""},
		{"admin sem token", "/admin", nil, http.StatusUnauthorized, MsgMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutils.MakeRequest(t, router, http.MethodGet, tt.path, nil, tt.headers)
			assert.Equal(t, tt.status, resp.Code)
			if tt.message != "" {
				testutils.RequireErrorMessage(t, resp, tt.message)
			}
		})
	}
}

func TestAuthenticateAdmin_HandlerRunsOnce(t *testing.T) {
	validator := stubValidator{"tok-user": {ID: "u1", Username: "bruno", Role: model.RoleUser}}
	auth := NewAuthMiddleware(validator, testutils.TestLogger(t))

	calls := 0
	router := testutils.SetupTestRouter(t)
	router.DELETE("/x", auth.AuthenticateAdmin, func(c *gin.Context) {
		calls++
		c.Status(http.StatusNoContent)
	})

	resp := testutils.MakeRequest(t, router, http.MethodDelete, "/x", nil, testutils.BearerHeader("tok-user"))
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Zero(t, calls)
}

func TestIPRateLimit(t *testing.T) {
	logger := testutils.TestLogger(t)
	cfg := config.RateLimitConfig{Enabled: true, Backend: "memory", RequestsPerMinute: 2, BurstFactor: 1}
	rl := NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(logger), cfg, nil, logger)

	router := testutils.SetupTestRouter(t)
	router.POST("/auth/login", rl.IPRateLimit("login"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		resp := testutils.MakeRequest(t, router, http.MethodPost, "/auth/login", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := testutils.MakeRequest(t, router, http.MethodPost, "/auth/login", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
	testutils.RequireErrorMessage(t, resp, MsgTooManyRequests)
}

func TestIPRateLimit_Disabled(t *testing.T) {
	logger := testutils.TestLogger(t)
	rl := NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(logger), config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, nil, logger)

	router := testutils.SetupTestRouter(t)
	router.POST("/users/signup", rl.IPRateLimit("signup"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		resp := testutils.MakeRequest(t, router, http.MethodPost, "/users/signup", nil, nil)
		assert.Equal(t, http.StatusOK, resp.Code)
	}
}

func TestCORS(t *testing.T) {
	sec := NewSecurityMiddleware([]string{"https://app.ativix.local"}, testutils.TestLogger(t))
	router := testutils.SetupTestRouter(t)
	router.Use(sec.CORS())
	router.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := testutils.MakeRequest(t, router, http.MethodGet, "/users", nil, map[string]string{"Origin": "https://app.ativix.local"})
	assert.Equal(t, "https://app.ativix.local", resp.Header().Get("Access-Control-Allow-Origin"))

	resp = testutils.MakeRequest(t, router, http.MethodGet, "/users", nil, map[string]string{"Origin": "https://outro.example"})
	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))

	resp = testutils.MakeRequest(t, router, http.MethodOptions, "/users", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestRecovery(t *testing.T) {
	rec := NewRecoveryMiddleware(testutils.TestLogger(t))
	router := gin.New()
	router.Use(rec.Recovery())
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	resp := testutils.MakeRequest(t, router, http.MethodGet, "/panic", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	testutils.RequireErrorMessage(t, resp, "Erro interno do servidor")
}
