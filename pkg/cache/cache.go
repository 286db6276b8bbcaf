package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ativix/ativix/pkg/config"
	"github.com/ativix/ativix/pkg/resilience"
	"go.uber.org/zap"
)

// KeyPrefix prefixa todas as chaves gravadas pela aplicação
const KeyPrefix = "ativix:"

// Cache define a interface para operações de cache
type Cache interface {
	// Set armazena um valor no cache com tempo de expiração
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Get recupera um valor do cache
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Delete remove um valor do cache
	Delete(ctx context.Context, key string) error

	// Clear remove todos os valores do cache
	Clear(ctx context.Context) error

	// Ping verifica se o cache está acessível
	Ping(ctx context.Context) error
}

// MetricsRecorder recebe a taxa de acertos do cache
type MetricsRecorder interface {
	UpdateCacheHitRatio(cacheType string, hitRatio float64)
}

// Key monta uma chave com o prefixo da aplicação
func Key(parts ...string) string {
	key := KeyPrefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}

// New cria o cache descrito na configuração
func New(cfg config.CacheConfig, metrics MetricsRecorder, logger *zap.Logger) (Cache, error) {
	if !cfg.Enabled {
		logger.Info("Cache desabilitado")
		return &NoOpCache{}, nil
	}

	switch cfg.Type {
	case "memory":
		return NewMemoryCache(cfg.TTL, cfg.CleanupInterval, metrics, logger), nil
	case "redis":
		rc, err := NewRedisCacheFromConfig(cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		recorder, _ := metrics.(resilience.StateRecorder)
		breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "cache.redis"}, logger, recorder)
		return NewGuardedCache(rc, breaker, logger), nil
	default:
		return nil, fmt.Errorf("tipo de cache inválido: %s", cfg.Type)
	}
}
