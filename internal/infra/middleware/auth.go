package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ativix/ativix/internal/domain/model"
	apperrors "github.com/ativix/ativix/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserKey é a chave do usuário autenticado no contexto do gin
const UserKey = "user"

const (
	MsgMissingToken = "Token não fornecido"
	MsgTokenFormat  = "Formato inválido do token"
	MsgInvalidToken = "Token inválido ou expirado"
	MsgAdminOnly    = "Somente admin"
)

// TokenValidator valida um token e devolve o usuário correspondente
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.User, error)
}

// AuthMiddleware gerencia middlewares de autenticação
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware cria uma nova instância do middleware de autenticação
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// Authenticate exige "Authorization: Bearer <token>" e guarda o usuário no contexto
func (m *AuthMiddleware) Authenticate(c *gin.Context) {
	if m.authenticate(c) {
		c.Next()
	}
}

// AuthenticateAdmin autentica e exige papel ADMIN
func (m *AuthMiddleware) AuthenticateAdmin(c *gin.Context) {
	if !m.authenticate(c) {
		return
	}

	user, _ := CurrentUser(c)
	if !user.IsAdmin() {
		m.logger.Warn("Acesso administrativo negado",
			zap.String("username", user.Username),
			zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": MsgAdminOnly})
		return
	}

	c.Next()
}

// authenticate não chama c.Next: quem encadeia decide
func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgMissingToken})
		return false
	}

	scheme, tokenString, found := strings.Cut(authHeader, " ")
	tokenString = strings.TrimSpace(tokenString)
	if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgTokenFormat})
		return false
	}

	user, err := m.validator.ValidateToken(c.Request.Context(), tokenString)
	if apiErr, ok := apperrors.As(err); ok && apiErr.Code >= http.StatusInternalServerError {
		m.logger.Error("Falha ao validar token", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.AbortWithStatusJSON(apiErr.Code, gin.H{"error": apiErr.Message})
		return false
	}
	if err != nil {
		m.logger.Debug("Token rejeitado", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgInvalidToken})
		return false
	}

	c.Set(UserKey, user)
	return true
}

// CurrentUser devolve o usuário guardado por Authenticate
func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok && user != nil
}
