package cache

import (
	"context"
	"encoding/json"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// MemoryCache implementa a interface Cache usando armazenamento em memória
type MemoryCache struct {
	cache   *cache.Cache
	logger  *zap.Logger
	hits    int64
	misses  int64
	metrics MetricsRecorder
}

// NewMemoryCache cria uma nova instância de MemoryCache
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration, metrics MetricsRecorder, logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		cache:   cache.New(defaultExpiration, cleanupInterval),
		logger:  logger,
		metrics: metrics,
	}
}

// Set armazena um valor no cache
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.cache.Set(key, value, expiration)
	return nil
}

// Get recupera um valor do cache. Valores do mesmo tipo do destino são
// atribuídos diretamente; os demais passam por JSON.
func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	value, found := c.cache.Get(key)
	if !found {
		c.record(&c.misses)
		return false, nil
	}
	c.record(&c.hits)

	target := reflect.ValueOf(dest)
	if target.Kind() == reflect.Ptr && !target.IsNil() {
		v := reflect.ValueOf(value)
		if v.IsValid() && v.Type().AssignableTo(target.Elem().Type()) {
			target.Elem().Set(v)
			return true, nil
		}
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("falha ao serializar do cache", zap.String("key", key), zap.Error(err))
		return true, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Error("falha ao deserializar para o destino", zap.String("key", key), zap.Error(err))
		return true, err
	}

	return true, nil
}

// Delete remove um valor do cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear remove todos os valores do cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.cache.Flush()
	return nil
}

// Ping verifica se o cache está funcionando
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil // O cache em memória está sempre disponível
}

// Stats retorna acertos e falhas acumulados
func (c *MemoryCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

func (c *MemoryCache) record(counter *int64) {
	atomic.AddInt64(counter, 1)
	if c.metrics == nil {
		return
	}

	hits, misses := c.Stats()
	if total := hits + misses; total > 0 {
		c.metrics.UpdateCacheHitRatio("memory", float64(hits)/float64(total))
	}
}
