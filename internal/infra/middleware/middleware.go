package middleware

import (
	"net/http"
	"time"

	"github.com/ativix/ativix/internal/infra/metrics"
	"github.com/ativix/ativix/pkg/cache"
	"github.com/ativix/ativix/pkg/config"
	"github.com/ativix/ativix/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware contém todos os middlewares da aplicação
type Middleware struct {
	logger              *zap.Logger
	authMiddleware      *AuthMiddleware
	recoveryMiddleware  *RecoveryMiddleware
	securityMiddleware  *SecurityMiddleware
	tracingMiddleware   *TracingMiddleware
	metricsMiddleware   *MetricsMiddleware
	rateLimitMiddleware *RateLimitMiddleware
}

// NewMiddleware cria um novo conjunto de middlewares
func NewMiddleware(cfg *config.Config, logger *zap.Logger, validator TokenValidator, apiMetrics *metrics.APIMetrics, limiter ratelimit.Limiter) *Middleware {
	m := &Middleware{
		logger:              logger,
		authMiddleware:      NewAuthMiddleware(validator, logger),
		recoveryMiddleware:  NewRecoveryMiddleware(logger),
		securityMiddleware:  NewSecurityMiddleware(cfg.Server.AllowedOrigins, logger),
		tracingMiddleware:   NewTracingMiddleware(logger, cfg.Tracing.ServiceName),
		rateLimitMiddleware: NewRateLimitMiddleware(limiter, cfg.RateLimit, apiMetrics, logger),
	}
	if apiMetrics != nil {
		m.metricsMiddleware = NewMetricsMiddleware(apiMetrics, logger)
	}
	return m
}

// NewLimiter cria o limitador configurado. Se o Redis não responder, usa o
// limitador em memória. O close devolvido libera a conexão com o Redis.
func NewLimiter(cfg *config.Config, logger *zap.Logger) (ratelimit.Limiter, func() error) {
	noop := func() error { return nil }

	if cfg.RateLimit.Backend != "redis" {
		logger.Info("Rate limiting em memória")
		return ratelimit.NewMemoryLimiter(logger), noop
	}

	redisClient, err := cache.NewRedisClient(cfg.Cache.Redis, logger)
	if err != nil {
		logger.Error("Erro ao conectar ao Redis para rate limiting, usando limitador em memória",
			zap.Error(err),
			zap.String("redis.address", cfg.Cache.Redis.Address))
		return ratelimit.NewMemoryLimiter(logger), noop
	}

	logger.Info("Conectado ao Redis para rate limiting",
		zap.String("redis.address", cfg.Cache.Redis.Address))
	return ratelimit.NewRedisLimiter(redisClient, logger), redisClient.Close
}

// Metrics retorna o middleware de métricas
func (m *Middleware) Metrics() gin.HandlerFunc {
	if m.metricsMiddleware != nil {
		return m.metricsMiddleware.Middleware()
	}
	return func(c *gin.Context) {
		c.Next() // No-op se não configurado
	}
}

// Authenticate middleware para autenticação de usuários
func (m *Middleware) Authenticate(c *gin.Context) {
	m.authMiddleware.Authenticate(c)
}

// AuthenticateAdmin middleware para autenticação de administradores
func (m *Middleware) AuthenticateAdmin(c *gin.Context) {
	m.authMiddleware.AuthenticateAdmin(c)
}

// RateLimit limita por IP as rotas públicas do escopo indicado
func (m *Middleware) RateLimit(scope string) gin.HandlerFunc {
	return m.rateLimitMiddleware.IPRateLimit(scope)
}

// Recovery middleware para recuperação de pânicos
func (m *Middleware) Recovery() gin.HandlerFunc {
	return m.recoveryMiddleware.Recovery()
}

// IgnoreFavicon é um middleware que ignora requisições para /favicon.ico
func (m *Middleware) IgnoreFavicon() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/favicon.ico" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Logger middleware para logging de requisições
func (m *Middleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("path", path),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if user, ok := CurrentUser(c); ok {
			fields = append(fields, zap.String("username", user.Username))
		}

		m.logger.Info("request completed", fields...)
	}
}

// SecurityHeaders middleware para adicionar cabeçalhos de segurança
func (m *Middleware) SecurityHeaders() gin.HandlerFunc {
	return m.securityMiddleware.Headers()
}

// CORS middleware para configurar CORS
func (m *Middleware) CORS() gin.HandlerFunc {
	return m.securityMiddleware.CORS()
}

// Tracing retorna o middleware de tracing
func (m *Middleware) Tracing() gin.HandlerFunc {
	return m.tracingMiddleware.Middleware()
}
