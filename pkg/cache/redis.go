package cache

import (
	"context"
	"encoding/json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"time"

	"github.com/ativix/ativix/pkg/config"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisCache implementa a interface Cache usando Redis
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
	tracer trace.Tracer
}

// NewRedisCacheFromConfig cria o cache a partir da seção cache.redis
func NewRedisCacheFromConfig(opts config.RedisOptions, logger *zap.Logger) (*RedisCache, error) {
	tracer := otel.GetTracerProvider().Tracer("ativix.cache.redis")

	client, err := NewRedisClient(opts, logger)
	if err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
		logger: logger,
		tracer: tracer,
	}, nil
}

// NewRedisClient cria e testa um cliente Redis; também usado pelo rate limiter
func NewRedisClient(opts config.RedisOptions, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		DialTimeout:  opts.DialTimeout,
		PoolTimeout:  opts.PoolTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Falha ao conectar ao Redis",
			zap.String("addr", opts.Address),
			zap.Error(err))
		_ = client.Close()
		return nil, err
	}

	logger.Info("Conexão com Redis estabelecida com sucesso",
		zap.String("addr", opts.Address),
		zap.Int("db", opts.DB))

	return client, nil
}

func spanError(span trace.Span, status string, err error) {
	span.SetStatus(codes.Error, status)
	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String("error.message", err.Error()),
	)
}

// Set armazena um valor serializado em JSON
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	ctx, span := c.tracer.Start(ctx, "RedisCache.Set", trace.WithAttributes(
		attribute.String("cache.key", key),
		attribute.Int64("cache.expiration_ms", expiration.Milliseconds()),
	))
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("falha ao serializar para cache", zap.String("key", key), zap.Error(err))
		spanError(span, "serialization failure", err)
		return err
	}
	span.SetAttributes(attribute.Int("cache.data_size_bytes", len(data)))

	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		c.logger.Error("falha ao armazenar no Redis", zap.String("key", key), zap.Error(err))
		spanError(span, "redis error", err)
		return err
	}
	return nil
}

// Get recupera e desserializa um valor; chave ausente é um miss sem erro
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "RedisCache.Get", trace.WithAttributes(
		attribute.String("cache.key", key),
	))
	defer span.End()

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return false, nil
	}
	if err != nil {
		c.logger.Error("falha ao recuperar do cache", zap.String("key", key), zap.Error(err))
		spanError(span, "redis error", err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Error("falha ao deserializar do cache", zap.String("key", key), zap.Error(err))
		spanError(span, "deserialization failure", err)
		return false, err
	}
	return true, nil
}

// Delete remove um valor do cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	ctx, span := c.tracer.Start(ctx, "RedisCache.Delete", trace.WithAttributes(
		attribute.String("cache.key", key),
	))
	defer span.End()

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("falha ao remover do cache", zap.String("key", key), zap.Error(err))
		spanError(span, "redis error", err)
		return err
	}
	return nil
}

// Clear remove as chaves da aplicação
func (c *RedisCache) Clear(ctx context.Context) error {
	return c.ClearPattern(ctx, KeyPrefix+"*")
}

// ClearPattern remove as chaves que casam com o padrão usando SCAN
func (c *RedisCache) ClearPattern(ctx context.Context, pattern string) error {
	ctx, span := c.tracer.Start(ctx, "RedisCache.ClearPattern", trace.WithAttributes(
		attribute.String("cache.pattern", pattern),
	))
	defer span.End()

	var removed int64
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			c.logger.Error("falha ao remover chave do cache", zap.String("key", iter.Val()), zap.Error(err))
			spanError(span, "redis delete error", err)
			return err
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		c.logger.Error("falha ao listar chaves do cache", zap.Error(err))
		spanError(span, "redis error", err)
		return err
	}

	span.SetAttributes(attribute.Int64("cache.keys_removed", removed))
	return nil
}

// Ping verifica se o Redis está acessível
func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "RedisCache.Ping")
	defer span.End()

	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Error("falha ao fazer ping no Redis", zap.Error(err))
		spanError(span, "redis ping failure", err)
		return err
	}
	return nil
}

// Close encerra as conexões com o Redis
func (c *RedisCache) Close() error {
	return c.client.Close()
}
