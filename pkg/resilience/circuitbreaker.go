// Package resilience protege chamadas a dependências externas que podem ficar
// lentas ou indisponíveis.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrCircuitOpen é retornado quando o circuit breaker está aberto
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// CircuitState representa os estados possíveis do circuit breaker
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// StateRecorder recebe as mudanças de estado (implementado pelas métricas)
type StateRecorder interface {
	CircuitBreakerStateChanged(name string, open bool)
}

// CircuitBreakerConfig contém a configuração do circuit breaker
type CircuitBreakerConfig struct {
	Name            string
	MaxRequestsFail int           // falhas seguidas até abrir o circuito
	Timeout         time.Duration // tempo aberto antes de tentar half-open
	MaxRequests     int           // requisições permitidas no estado half-open
}

// CircuitBreaker implementa o pattern Circuit Breaker
type CircuitBreaker struct {
	name        string
	maxFails    int
	timeout     time.Duration
	maxRequests int

	mutex            sync.Mutex
	state            CircuitState
	failCount        int
	nextAttemptTime  time.Time
	halfOpenRequests int

	now      func() time.Time
	logger   *zap.Logger
	recorder StateRecorder
}

// NewCircuitBreaker cria um novo circuit breaker; recorder pode ser nil
func NewCircuitBreaker(config CircuitBreakerConfig, logger *zap.Logger, recorder StateRecorder) *CircuitBreaker {
	if config.MaxRequestsFail <= 0 {
		config.MaxRequestsFail = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 1
	}

	return &CircuitBreaker{
		name:        config.Name,
		maxFails:    config.MaxRequestsFail,
		timeout:     config.Timeout,
		maxRequests: config.MaxRequests,
		state:       StateClosed,
		now:         time.Now,
		logger:      logger,
		recorder:    recorder,
	}
}

// Execute executa fn se o circuito permitir. Com o circuito aberto devolve
// ErrCircuitOpen sem chamar fn. Cancelamento do context não conta como falha.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	if errors.Is(err, context.Canceled) {
		cb.release()
		return err
	}
	cb.recordResult(err == nil)
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if cb.now().Before(cb.nextAttemptTime) {
			return false
		}
		cb.toHalfOpen()
		cb.halfOpenRequests++
		return true

	case StateHalfOpen:
		if cb.halfOpenRequests >= cb.maxRequests {
			return false
		}
		cb.halfOpenRequests++
		return true
	}

	return false
}

// release devolve a vaga half-open de uma chamada cancelada
func (cb *CircuitBreaker) release() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	if cb.state == StateHalfOpen && cb.halfOpenRequests > 0 {
		cb.halfOpenRequests--
	}
}

func (cb *CircuitBreaker) recordResult(success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		if success {
			cb.failCount = 0
			return
		}
		cb.failCount++
		cb.logger.Debug("circuit breaker registrou falha",
			zap.String("name", cb.name),
			zap.Int("failCount", cb.failCount),
			zap.Int("maxFails", cb.maxFails))
		if cb.failCount >= cb.maxFails {
			cb.toOpen()
		}

	case StateHalfOpen:
		if success {
			cb.toClosed()
		} else {
			cb.toOpen()
		}
	}
}

func (cb *CircuitBreaker) toOpen() {
	cb.state = StateOpen
	cb.nextAttemptTime = cb.now().Add(cb.timeout)

	if cb.recorder != nil {
		cb.recorder.CircuitBreakerStateChanged(cb.name, true)
	}

	cb.logger.Warn("circuit breaker mudou para estado aberto",
		zap.String("name", cb.name),
		zap.Time("nextAttempt", cb.nextAttemptTime))
}

func (cb *CircuitBreaker) toHalfOpen() {
	cb.state = StateHalfOpen
	cb.halfOpenRequests = 0
	cb.logger.Info("circuit breaker mudou para estado meio-aberto", zap.String("name", cb.name))
}

func (cb *CircuitBreaker) toClosed() {
	cb.state = StateClosed
	cb.failCount = 0

	if cb.recorder != nil {
		cb.recorder.CircuitBreakerStateChanged(cb.name, false)
	}

	cb.logger.Info("circuit breaker mudou para estado fechado", zap.String("name", cb.name))
}

// State retorna o estado atual do circuit breaker
func (cb *CircuitBreaker) State() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Reset reseta o circuit breaker para o estado fechado
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.toClosed()
}
