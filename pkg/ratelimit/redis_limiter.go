package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// keyPrefix segue o prefixo das chaves de cache da aplicação
const keyPrefix = "ativix:"

// RedisLimiter implementa rate limiting usando Redis, compartilhado entre réplicas
type RedisLimiter struct {
	RedisClient *redis.Client
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewRedisLimiter cria um novo limitador baseado em Redis
func NewRedisLimiter(redisClient *redis.Client, logger *zap.Logger) *RedisLimiter {
	tracer := otel.GetTracerProvider().Tracer("ativix.ratelimit")

	return &RedisLimiter{
		RedisClient: redisClient,
		logger:      logger,
		tracer:      tracer,
	}
}

var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local expireAt = tonumber(ARGV[1])
local now = tonumber(ARGV[2])

local count = redis.call('INCR', key)
if count == 1 then
    redis.call('EXPIREAT', key, expireAt)
end

return {count, expireAt - now}
`)

// Allow aplica uma janela fixa por chave. Em caso de falha do Redis a
// requisição é liberada e o erro é retornado para registro.
func (r *RedisLimiter) Allow(ctx context.Context, config LimitConfig) (Result, error) {
	ctx, span := r.tracer.Start(
		ctx,
		"RedisLimiter.Allow",
		trace.WithAttributes(
			attribute.String("ratelimit.key", config.Key),
			attribute.Int("ratelimit.limit", config.Limit),
			attribute.Int64("ratelimit.period_ms", config.Period.Milliseconds()),
		),
	)
	defer span.End()

	config, err := config.validate()
	if err != nil {
		span.SetStatus(codes.Error, "invalid config")
		return Result{Allowed: true}, err
	}

	burst := config.burst()
	key := fmt.Sprintf("%sratelimit:%s", keyPrefix, config.Key)

	now := time.Now().Unix()
	periodSeconds := int64(config.Period.Seconds())
	if periodSeconds < 1 {
		periodSeconds = 1
	}
	expireAt := now - (now % periodSeconds) + periodSeconds
	resetAfter := time.Duration(expireAt-now) * time.Second

	result, err := fixedWindowScript.Run(ctx, r.RedisClient, []string{key}, expireAt, now).Result()
	if err != nil {
		r.logger.Error("erro ao executar script de rate limit", zap.Error(err))
		span.SetStatus(codes.Error, "redis script error")
		span.SetAttributes(attribute.String("error.message", err.Error()))
		return Result{Allowed: true, Limit: burst, Remaining: burst, ResetAfter: resetAfter}, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		r.logger.Error("resultado inesperado do script de rate limit", zap.Any("result", result))
		span.SetStatus(codes.Error, "unexpected result")
		return Result{Allowed: true, Limit: burst, Remaining: burst, ResetAfter: resetAfter}, errors.New("resultado inválido do Redis")
	}

	count, _ := strconv.Atoi(fmt.Sprintf("%v", values[0]))
	ttl, _ := strconv.ParseInt(fmt.Sprintf("%v", values[1]), 10, 64)

	remaining := burst - count
	if remaining < 0 {
		remaining = 0
	}
	allowed := count <= burst

	span.SetAttributes(
		attribute.Int("ratelimit.count", count),
		attribute.Int("ratelimit.burst_limit", burst),
		attribute.Bool("ratelimit.allowed", allowed),
	)
	if !allowed {
		span.SetStatus(codes.Error, "rate limit exceeded")
	}

	return Result{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  remaining,
		ResetAfter: time.Duration(ttl) * time.Second,
	}, nil
}
