package auth

import (
	"context"
	"errors"
	"time"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/domain/repository"
	apperrors "github.com/ativix/ativix/pkg/errors"
	"github.com/ativix/ativix/pkg/security"
	"github.com/ativix/ativix/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	MsgInvalidCredentials = "Credenciais inválidas"
	MsgInvalidToken       = "Token inválido ou expirado"
	MsgAuthFailed         = "Erro ao autenticar"
)

// AuthService gerencia operações de autenticação
type AuthService struct {
	keyManager *security.KeyManager
	userRepo   repository.UserRepository
	tokenTTL   time.Duration
	logger     *zap.Logger
}

// NewAuthService cria um novo serviço de autenticação
func NewAuthService(keyManager *security.KeyManager, userRepo repository.UserRepository, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		keyManager: keyManager,
		userRepo:   userRepo,
		tokenTTL:   tokenTTL,
		logger:     logger,
	}
}

// Login confere a senha com bcrypt e emite um token JWT
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	if err := validation.RequireCredentials(username, password); err != nil {
		return "", nil, validation.BadRequest(err)
	}

	entity, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("Falha na autenticação", zap.String("username", username), zap.Error(err))
			return "", nil, apperrors.Unauthorized(MsgInvalidCredentials, err)
		}
		return "", nil, apperrors.InternalServer(MsgAuthFailed, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(entity.Password), []byte(password)); err != nil {
		s.logger.Warn("Falha na autenticação", zap.String("username", username), zap.String("reason", "senha"))
		return "", nil, apperrors.Unauthorized(MsgInvalidCredentials, err)
	}

	user := entity.ToModel()
	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, apperrors.InternalServer("Erro ao gerar token", err)
	}

	s.logger.Info("Login bem-sucedido", zap.String("user_id", user.ID))
	return token, user, nil
}

// IssueToken gera o token de um usuário já autenticado
func (s *AuthService) IssueToken(user *model.User) (string, error) {
	token, err := s.keyManager.GenerateToken(user.ID, user.Username, string(user.Role), s.tokenTTL)
	if err != nil {
		s.logger.Error("Falha ao gerar token", zap.String("user_id", user.ID), zap.Error(err))
		return "", err
	}
	return token, nil
}

// ValidateToken valida o token e recarrega o usuário; o papel vem do banco,
// e usuários removidos perdem o acesso
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.keyManager.VerifyToken(tokenString)
	if err != nil {
		return nil, apperrors.Unauthorized(MsgInvalidToken, err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("Usuário do token não encontrado", zap.String("user_id", claims.UserID))
			return nil, apperrors.Unauthorized(MsgInvalidToken, err)
		}
		s.logger.Error("Erro ao carregar usuário do token", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, apperrors.InternalServer(MsgAuthFailed, err)
	}

	return user, nil
}
