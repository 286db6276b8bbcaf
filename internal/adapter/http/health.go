package http

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger é qualquer dependência que responde a um ping
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency representa um componente do qual o sistema depende
type Dependency struct {
	Name     string
	Check    func(context.Context) error
	Critical bool // Se true, falha deste componente faz o health check falhar
}

// HealthChecker implementa endpoints de health check
type HealthChecker struct {
	logger       *zap.Logger
	dependencies []Dependency
	timeout      time.Duration
}

// NewHealthChecker cria um health checker com o banco (crítico) e o cache
func NewHealthChecker(db Pinger, cache Pinger, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		logger:  logger,
		timeout: 5 * time.Second,
	}
	if db != nil {
		hc.dependencies = append(hc.dependencies, Dependency{Name: "database", Check: db.Ping, Critical: true})
	}
	if cache != nil {
		hc.dependencies = append(hc.dependencies, Dependency{Name: "cache", Check: cache.Ping, Critical: false})
	}
	return hc
}

// AddDependency inclui uma verificação extra
func (h *HealthChecker) AddDependency(dep Dependency) {
	h.dependencies = append(h.dependencies, dep)
}

// LivenessCheck verifica se o aplicativo está vivo (execução básica)
func (h *HealthChecker) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"time":   time.Now(),
	})
}

// ReadinessCheck verifica se o aplicativo está pronto para receber tráfego
func (h *HealthChecker) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	checks, healthy := h.runChecks(ctx, false)

	status := http.StatusOK
	overall := "UP"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "DOWN"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"time":   time.Now(),
		"checks": checks,
	})
}

// DetailedHealth inclui erros e informações do processo
func (h *HealthChecker) DetailedHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*h.timeout)
	defer cancel()

	checks, healthy := h.runChecks(ctx, true)

	status := http.StatusOK
	overall := "UP"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "DOWN"
	}

	c.JSON(status, gin.H{
		"status":      overall,
		"time":        time.Now(),
		"version":     getVersion(),
		"environment": getEnvironment(),
		"checks":      checks,
		"system":      getSystemInfo(),
	})
}

// runChecks verifica as dependências em paralelo
func (h *HealthChecker) runChecks(ctx context.Context, withErrors bool) (map[string]gin.H, bool) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		healthy = true
		checks  = make(map[string]gin.H, len(h.dependencies))
	)

	for _, dep := range h.dependencies {
		wg.Add(1)
		go func(d Dependency) {
			defer wg.Done()

			start := time.Now()
			err := d.Check(ctx)
			duration := time.Since(start)

			result := gin.H{
				"status":   "UP",
				"time":     duration.String(),
				"critical": d.Critical,
			}
			if err != nil {
				result["status"] = "DOWN"
				if withErrors {
					result["error"] = err.Error()
				}
				h.logger.Error("health check falhou",
					zap.String("dependency", d.Name),
					zap.Error(err))
			}

			mu.Lock()
			defer mu.Unlock()
			checks[d.Name] = result
			if err != nil && d.Critical {
				healthy = false
			}
		}(dep)
	}

	wg.Wait()
	return checks, healthy
}

// getVersion retorna a versão do aplicativo
func getVersion() string {
	return os.Getenv("APP_VERSION")
}

// getEnvironment retorna o ambiente atual
func getEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "development"
	}
	return env
}

// getSystemInfo retorna informações sobre o sistema
func getSystemInfo() gin.H {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return gin.H{
		"go_version":    runtime.Version(),
		"num_cpu":       runtime.NumCPU(),
		"num_goroutine": runtime.NumGoroutine(),
		"alloc_mb":      float64(m.Alloc) / 1024 / 1024,
		"num_gc":        m.NumGC,
	}
}
