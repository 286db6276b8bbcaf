package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ativix/ativix/internal/infra/metrics"
	"github.com/ativix/ativix/pkg/config"
	"github.com/ativix/ativix/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MsgTooManyRequests é a resposta quando o limite é excedido
const MsgTooManyRequests = "Muitas tentativas. Aguarde e tente novamente."

// RateLimitMiddleware limita as rotas públicas de autenticação por IP
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	cfg     config.RateLimitConfig
	metrics *metrics.APIMetrics
	logger  *zap.Logger
}

// NewRateLimitMiddleware cria um novo middleware de rate limiting
func NewRateLimitMiddleware(limiter ratelimit.Limiter, cfg config.RateLimitConfig, metrics *metrics.APIMetrics, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// IPRateLimit limita requisições por IP para o grupo de rotas indicado
func (m *RateLimitMiddleware) IPRateLimit(scope string) gin.HandlerFunc {
	if m == nil || m.limiter == nil || !m.cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		res, err := m.limiter.Allow(c.Request.Context(), ratelimit.LimitConfig{
			Key:         scope + ":" + clientIP,
			Limit:       m.cfg.RequestsPerMinute,
			Period:      time.Minute,
			BurstFactor: m.cfg.BurstFactor,
		})
		if err != nil {
			// Em caso de erro, permite a requisição
			m.logger.Error("erro ao verificar rate limit", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))

		if !res.Allowed {
			path := c.FullPath()
			if path == "" {
				path = c.Request.URL.Path
			}
			if m.metrics != nil {
				m.metrics.RateLimitExceeded(path, c.Request.Method, scope)
			}
			m.logger.Warn("Limite de requisições excedido",
				zap.String("ip", clientIP),
				zap.String("scope", scope))

			retry := int(res.ResetAfter.Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       MsgTooManyRequests,
				"retry_after": retry,
			})
			return
		}

		c.Next()
	}
}
