package app

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/ativix/ativix/internal/adapter/database"
	"github.com/ativix/ativix/internal/adapter/http"
	"github.com/ativix/ativix/internal/domain/service"
	"github.com/ativix/ativix/internal/infra/metrics"
	"github.com/ativix/ativix/internal/infra/middleware"
	"github.com/ativix/ativix/pkg/cache"
	"github.com/ativix/ativix/pkg/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// App reúne as dependências da aplicação
type App struct {
	Config          *config.Config
	Logger          *zap.Logger
	DB              *database.Database
	Cache           cache.Cache
	Services        *service.Services
	Middleware      *middleware.Middleware
	APIMetrics      *metrics.APIMetrics
	MetricsHandler  *middleware.MetricsHandler
	UserHandler     *http.UserHandler
	ActivityHandler *http.ActivityHandler
	ReportHandler   *http.ReportHandler
	Health          *http.HealthChecker

	closers []func() error
}

// NewApp cria uma nova instância da aplicação com todas as dependências injetadas
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewDatabase(ctx, database.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return nil, err
	}
	return NewAppWithDatabase(ctx, cfg, db, logger)
}

// NewAppWithDatabase monta a aplicação sobre um banco já aberto e migrado
func NewAppWithDatabase(ctx context.Context, cfg *config.Config, db *database.Database, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, DB: db}
	a.closers = append(a.closers, db.Close)

	// Métricas
	var recorder cache.MetricsRecorder
	if cfg.Metrics.Enabled {
		a.APIMetrics = metrics.NewAPIMetrics()
		a.MetricsHandler = middleware.NewMetricsHandler(a.APIMetrics, logger)
		recorder = a.APIMetrics
	}

	// Cache dos relatórios
	c, err := cache.New(cfg.Cache, recorder, logger)
	if err != nil {
		logger.Error("Falha ao inicializar cache, seguindo sem cache", zap.Error(err))
		c = &cache.NoOpCache{}
	}
	a.Cache = c
	if closer, ok := c.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	// Repositórios
	userRepo := database.NewUserRepository(db.DB(), logger)
	activityRepo := database.NewActivityRepository(db.DB(), logger)

	// Serviços
	services, err := service.NewServices(cfg, userRepo, activityRepo, c, logger)
	if err != nil {
		return nil, fmt.Errorf("erro ao inicializar serviços: %w", err)
	}
	a.Services = services

	// Middlewares
	limiter, closeLimiter := middleware.NewLimiter(cfg, logger)
	a.closers = append(a.closers, closeLimiter)
	a.Middleware = middleware.NewMiddleware(cfg, logger, services.AuthService, a.APIMetrics, limiter)

	// Handlers
	a.UserHandler = http.NewUserHandler(services.AuthService, services.UserService, logger)
	a.ActivityHandler = http.NewActivityHandler(services.ActivityService, logger)
	a.ReportHandler = http.NewReportHandler(services.ReportService, logger)
	if a.APIMetrics != nil {
		a.UserHandler.SetMetrics(a.APIMetrics)
		a.ActivityHandler.SetMetrics(a.APIMetrics)
		a.ReportHandler.SetMetrics(a.APIMetrics)
	}
	a.Health = http.NewHealthChecker(db, c, logger)

	// Carga inicial opcional
	if cfg.Database.SeedFile != "" {
		n, err := database.NewSeedLoader(db, logger).LoadActivitiesFromJSON(ctx, cfg.Database.SeedFile)
		if err != nil {
			logger.Error("Falha ao carregar atividades iniciais", zap.Error(err))
		} else if n > 0 {
			services.ReportService.Invalidate(ctx)
		}
	}

	return a, nil
}

// RegisterRoutes registra todas as rotas no router
func (a *App) RegisterRoutes(router *gin.Engine) {
	mw := a.Middleware

	// Configurar middleware global
	router.Use(mw.Recovery())
	router.Use(mw.Tracing())
	router.Use(mw.Logger())
	router.Use(mw.Metrics())
	router.Use(mw.SecurityHeaders())
	router.Use(mw.CORS())
	router.Use(mw.IgnoreFavicon())

	// Rotas públicas
	router.GET("/health", a.Health.LivenessCheck)
	router.GET("/health/liveness", a.Health.LivenessCheck)
	router.GET("/health/readiness", a.Health.ReadinessCheck)
	router.GET("/health/detailed", mw.AuthenticateAdmin, a.Health.DetailedHealth)

	if a.MetricsHandler != nil {
		a.MetricsHandler.RegisterEndpoint(router, a.Config.Metrics.PrometheusPath)
	}

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", mw.RateLimit("login"), a.UserHandler.Login)
	}

	users := router.Group("/users")
	{
		users.GET("", a.UserHandler.List)
		users.POST("/signup", mw.RateLimit("signup"), a.UserHandler.Signup)
		users.GET("/me", mw.Authenticate, a.UserHandler.Me)
		users.POST("", mw.Authenticate, a.UserHandler.Create)
		users.DELETE("/:id", mw.AuthenticateAdmin, a.UserHandler.Delete)
	}

	atividades := router.Group("/atividades")
	atividades.Use(mw.Authenticate)
	{
		atividades.GET("", a.ActivityHandler.List)
		atividades.POST("", a.ActivityHandler.Create)
		atividades.GET("/:id", a.ActivityHandler.Get)
		atividades.PATCH("/:id", a.ActivityHandler.Update)
		atividades.POST("/:id/concluir", a.ActivityHandler.Conclude)
		atividades.POST("/:id/comentarios", a.ActivityHandler.AddComment)
		atividades.PUT("/:id/comentarios/:commentId", a.ActivityHandler.EditComment)
		atividades.DELETE("/:id/comentarios/:commentId", a.ActivityHandler.DeleteComment)
	}

	// Rotas administrativas
	adminAtividades := router.Group("/atividades")
	adminAtividades.Use(mw.AuthenticateAdmin)
	{
		adminAtividades.POST("/:id/fixar", a.ActivityHandler.Assign)
		adminAtividades.DELETE("/:id", a.ActivityHandler.Delete)
	}

	relatorios := router.Group("/relatorios")
	relatorios.Use(mw.AuthenticateAdmin)
	{
		relatorios.GET("/:tipo", a.ReportHandler.Get)
		relatorios.GET("/:tipo/export", a.ReportHandler.Export)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(nethttp.StatusNotFound, gin.H{"error": "Rota não encontrada"})
	})
}

// Close libera banco, cache e limitador
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("Erro ao liberar recurso", zap.Error(err))
		}
	}
}
