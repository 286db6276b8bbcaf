package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MemoryLimiter aplica token bucket por chave dentro do processo
type MemoryLimiter struct {
	mu     sync.Mutex
	store  map[string]*limiterEntry
	maxAge time.Duration
	logger *zap.Logger
}

type limiterEntry struct {
	limiter *rate.Limiter
	updated time.Time
}

// NewMemoryLimiter cria um limitador em memória; chaves ociosas por mais de
// 10 minutos são descartadas
func NewMemoryLimiter(logger *zap.Logger) *MemoryLimiter {
	return &MemoryLimiter{
		store:  make(map[string]*limiterEntry),
		maxAge: 10 * time.Minute,
		logger: logger,
	}
}

func (m *MemoryLimiter) get(config LimitConfig) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if entry, ok := m.store[config.Key]; ok {
		entry.updated = now
		return entry.limiter
	}

	perSecond := rate.Limit(float64(config.Limit) / config.Period.Seconds())
	lim := rate.NewLimiter(perSecond, config.burst())
	m.store[config.Key] = &limiterEntry{limiter: lim, updated: now}

	for k, entry := range m.store {
		if now.Sub(entry.updated) > m.maxAge {
			delete(m.store, k)
		}
	}

	return lim
}

// Allow consome um token da chave
func (m *MemoryLimiter) Allow(ctx context.Context, config LimitConfig) (Result, error) {
	config, err := config.validate()
	if err != nil {
		return Result{Allowed: true}, err
	}

	lim := m.get(config)
	allowed := lim.Allow()

	remaining := int(math.Floor(lim.Tokens()))
	if remaining < 0 {
		remaining = 0
	}

	// tempo até a próxima ficha
	reset := time.Duration(float64(time.Second) / float64(lim.Limit()))

	if !allowed {
		m.logger.Debug("limite em memória excedido", zap.String("key", config.Key))
	}

	return Result{
		Allowed:    allowed,
		Limit:      config.burst(),
		Remaining:  remaining,
		ResetAfter: reset,
	}, nil
}

// Size retorna quantas chaves estão sendo acompanhadas
func (m *MemoryLimiter) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}
