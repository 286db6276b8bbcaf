package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIMetrics gerencia métricas da API e do domínio. Cada instância tem o próprio
// registro, exposto por Handler.
type APIMetrics struct {
	registry *prometheus.Registry

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSize     *prometheus.SummaryVec
	responseSize    *prometheus.SummaryVec
	activeRequests  *prometheus.GaugeVec
	errorsTotal     *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	cacheHitRatio   *prometheus.GaugeVec
	circuitOpen     *prometheus.GaugeVec

	loginAttempts    *prometheus.CounterVec
	activityEvents   *prometheus.CounterVec
	commentEvents    *prometheus.CounterVec
	versionConflicts prometheus.Counter
	reportsGenerated *prometheus.CounterVec
}

// NewAPIMetrics cria e registra métricas do prometheus
func NewAPIMetrics() *APIMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &APIMetrics{
		registry: registry,

		requestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ativix_requests_total",
				Help: "Total number of HTTP requests by path, method, and status code",
			},
			[]string{"path", "method", "status"},
		),

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ativix_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		requestSize: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "ativix_request_size_bytes",
				Help:       "HTTP request size in bytes",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"path", "method"},
		),

		responseSize: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "ativix_response_size_bytes",
				Help:       "HTTP response size in bytes",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"path", "method"},
		),

		activeRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ativix_active_requests",
				Help: "Number of in-flight requests being processed",
			},
			[]string{"path", "method"},
		),

		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ativix_errors_total",
				Help: "Total number of errors by type",
			},
			[]string{"path", "method", "error_type"},
		),

		rateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ativix_rate_limited_requests_total",
				Help: "Total number of rate limited requests",
			},
			[]string{"path", "method", "limit_type"},
		),

		cacheHitRatio: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ativix_cache_hit_ratio",
				Help: "Cache hit ratio (0.0 to 1.0)",
			},
			[]string{"cache_type"},
		),

		circuitOpen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ativix_circuit_breaker_open",
				Help: "1 while the named circuit breaker is open",
			},
			[]string{"name"},
		),

		loginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ativix_login_attempts_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),

		activityEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ativix_activity_events_total",
				Help: "Activity mutations by operation",
			},
			[]string{"operation"},
		),

		commentEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ativix_comment_events_total",
				Help: "Comment mutations by operation",
			},
			[]string{"operation"},
		),

		versionConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ativix_version_conflicts_total",
				Help: "Writes rejected because the activity version was stale",
			},
		),

		reportsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ativix_reports_generated_total",
				Help: "Reports served by kind and format",
			},
			[]string{"kind", "format"},
		),
	}
}

// Handler expõe o registro no formato do Prometheus
func (m *APIMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry retorna o registro usado pelas métricas
func (m *APIMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RequestStarted registra o início de uma requisição
func (m *APIMetrics) RequestStarted(path, method string) {
	m.activeRequests.WithLabelValues(path, method).Inc()
}

// RequestCompleted registra a conclusão de uma requisição
func (m *APIMetrics) RequestCompleted(path, method, status string, duration time.Duration, requestSize, responseSize int) {
	m.requestCounter.WithLabelValues(path, method, status).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
	m.requestSize.WithLabelValues(path, method).Observe(float64(requestSize))
	m.responseSize.WithLabelValues(path, method).Observe(float64(responseSize))
	m.activeRequests.WithLabelValues(path, method).Dec()
}

// RequestError registra um erro de requisição
func (m *APIMetrics) RequestError(path, method, errorType string) {
	m.errorsTotal.WithLabelValues(path, method, errorType).Inc()
}

// RateLimitExceeded registra quando um limite de taxa é excedido
func (m *APIMetrics) RateLimitExceeded(path, method, limitType string) {
	m.rateLimited.WithLabelValues(path, method, limitType).Inc()
}

// UpdateCacheHitRatio atualiza a taxa de acertos do cache
func (m *APIMetrics) UpdateCacheHitRatio(cacheType string, hitRatio float64) {
	m.cacheHitRatio.WithLabelValues(cacheType).Set(hitRatio)
}

// CircuitBreakerStateChanged registra a abertura ou o fechamento de um circuit breaker
func (m *APIMetrics) CircuitBreakerStateChanged(name string, open bool) {
	value := 0.0
	if open {
		value = 1
	}
	m.circuitOpen.WithLabelValues(name).Set(value)
}

// LoginAttempt registra uma tentativa de login ("success" ou "failure")
func (m *APIMetrics) LoginAttempt(result string) {
	m.loginAttempts.WithLabelValues(result).Inc()
}

// ActivityEvent registra uma mutação de atividade (create, conclude, assign, update, delete)
func (m *APIMetrics) ActivityEvent(operation string) {
	m.activityEvents.WithLabelValues(operation).Inc()
}

// CommentEvent registra uma mutação de comentário
func (m *APIMetrics) CommentEvent(operation string) {
	m.commentEvents.WithLabelValues(operation).Inc()
}

// VersionConflict registra uma escrita rejeitada por versão desatualizada
func (m *APIMetrics) VersionConflict() {
	m.versionConflicts.Inc()
}

// ReportGenerated registra um relatório servido
func (m *APIMetrics) ReportGenerated(kind, format string) {
	m.reportsGenerated.WithLabelValues(kind, format).Inc()
}
