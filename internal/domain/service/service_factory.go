package service

import (
	"github.com/ativix/ativix/internal/app/activity"
	"github.com/ativix/ativix/internal/app/auth"
	"github.com/ativix/ativix/internal/app/report"
	"github.com/ativix/ativix/internal/app/user"
	"github.com/ativix/ativix/internal/domain/repository"
	"github.com/ativix/ativix/pkg/cache"
	"github.com/ativix/ativix/pkg/config"
	"github.com/ativix/ativix/pkg/security"
	"go.uber.org/zap"
)

// Services contém todos os serviços da aplicação
type Services struct {
	AuthService     *auth.AuthService
	UserService     *user.Service
	ActivityService *activity.Service
	ReportService   *report.Service
}

// NewServices cria todos os serviços necessários
func NewServices(cfg *config.Config, userRepo repository.UserRepository, activityRepo repository.ActivityRepository, c cache.Cache, logger *zap.Logger) (*Services, error) {
	// Criar gerenciador de chaves
	keyManager, err := security.NewKeyManager(security.GetJWTSecret(cfg), logger)
	if err != nil {
		return nil, err
	}

	authService := auth.NewAuthService(keyManager, userRepo, cfg.Auth.TokenExpiration, logger)
	userService := user.NewService(userRepo, logger)

	// Relatórios antes das atividades: toda mutação invalida o cache
	reportService, err := report.NewService(activityRepo, c, cfg.Reports, logger)
	if err != nil {
		return nil, err
	}
	activityService := activity.NewService(activityRepo, userRepo, reportService, logger)

	return &Services{
		AuthService:     authService,
		UserService:     userService,
		ActivityService: activityService,
		ReportService:   reportService,
	}, nil
}
