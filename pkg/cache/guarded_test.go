package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ativix/ativix/pkg/cache"
	"github.com/ativix/ativix/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// flakyCache simula um backend fora do ar
type flakyCache struct {
	cache.NoOpCache
	calls int
	down  bool
}

var errBackendDown = errors.New("connection refused")

func (f *flakyCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	f.calls++
	if f.down {
		return false, errBackendDown
	}
	return true, nil
}

func (f *flakyCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.calls++
	if f.down {
		return errBackendDown
	}
	return nil
}

func TestGuardedCache_OpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	inner := &flakyCache{down: true}
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:            "test",
		MaxRequestsFail: 2,
		Timeout:         time.Hour,
	}, logger, nil)
	c := cache.NewGuardedCache(inner, breaker, logger)

	var dest string
	_, err := c.Get(ctx, "k", &dest)
	assert.ErrorIs(t, err, errBackendDown)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", time.Minute), errBackendDown)
	require.Equal(t, resilience.StateOpen, breaker.State())

	found, err := c.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	assert.Equal(t, 2, inner.calls)

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Close())
}

func TestGuardedCache_PassesThrough(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	mem := cache.NewMemoryCache(time.Minute, time.Minute, nil, logger)
	c := cache.NewGuardedCache(mem, resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "mem"}, logger, nil), logger)

	require.NoError(t, c.Set(ctx, "k", payload{Name: "a"}, time.Minute))
	var got payload
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "a", got.Name)

	require.NoError(t, c.Delete(ctx, "k"))
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
