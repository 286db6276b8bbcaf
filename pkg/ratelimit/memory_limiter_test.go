package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ativix/ativix/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMemoryLimiter_BlocksAfterBurst(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(zaptest.NewLogger(t))
	cfg := ratelimit.LimitConfig{Key: "login:10.0.0.1", Limit: 3, Period: time.Minute, BurstFactor: 1.0}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, cfg)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "requisição %d deveria passar", i+1)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Greater(t, res.ResetAfter, time.Duration(0))

	// Outra chave tem o próprio balde
	other := cfg
	other.Key = "login:10.0.0.2"
	res, err = limiter.Allow(ctx, other)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, limiter.Size())
}

func TestMemoryLimiter_InvalidConfig(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(zaptest.NewLogger(t))

	res, err := limiter.Allow(context.Background(), ratelimit.LimitConfig{Key: "x", Limit: 0, Period: time.Minute})
	assert.Error(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(zaptest.NewLogger(t))
	cfg := ratelimit.LimitConfig{Key: "signup", Limit: 10, Period: time.Hour}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.Allow(context.Background(), cfg)
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}
