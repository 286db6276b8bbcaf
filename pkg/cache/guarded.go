package cache

import (
	"context"
	"errors"
	"time"

	"github.com/ativix/ativix/pkg/resilience"
	"go.uber.org/zap"
)

// GuardedCache passa as operações por um circuit breaker. Com o circuito aberto
// leituras viram miss e escritas são descartadas, sem esperar o timeout do backend.
type GuardedCache struct {
	inner   Cache
	breaker *resilience.CircuitBreaker
	logger  *zap.Logger
}

// NewGuardedCache protege inner com o breaker informado
func NewGuardedCache(inner Cache, breaker *resilience.CircuitBreaker, logger *zap.Logger) *GuardedCache {
	return &GuardedCache{inner: inner, breaker: breaker, logger: logger}
}

func (g *GuardedCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return g.skipOpen(g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Set(ctx, key, value, expiration)
	}))
}

func (g *GuardedCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	var found bool
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		found, err = g.inner.Get(ctx, key, dest)
		return err
	})
	return found, g.skipOpen(err)
}

func (g *GuardedCache) Delete(ctx context.Context, key string) error {
	return g.skipOpen(g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Delete(ctx, key)
	}))
}

func (g *GuardedCache) Clear(ctx context.Context) error {
	return g.skipOpen(g.breaker.Execute(ctx, g.inner.Clear))
}

// Ping ignora o breaker: a prontidão reporta o estado real do backend
func (g *GuardedCache) Ping(ctx context.Context) error {
	return g.inner.Ping(ctx)
}

// Close fecha o backend quando ele tem conexões
func (g *GuardedCache) Close() error {
	if c, ok := g.inner.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (g *GuardedCache) skipOpen(err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		g.logger.Debug("cache ignorado: circuito aberto")
		return nil
	}
	return err
}
