package user

import (
	"context"
	"errors"
	"strings"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/domain/repository"
	apperrors "github.com/ativix/ativix/pkg/errors"
	"github.com/ativix/ativix/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Mensagens devolvidas pela API de usuários
const (
	MsgUsernameTaken   = "username já existe"
	MsgAdminEscalation = "Somente administradores podem criar outros administradores."
	MsgAdminOnly       = "Somente admin"
	MsgCreateFailed    = "Erro ao criar usuário"
	MsgListFailed      = "Erro ao buscar usuários"
	MsgDeleteFailed    = "Erro ao deletar usuário"
)

// Service implementa o cadastro e a listagem de usuários
type Service struct {
	repo       repository.UserRepository
	logger     *zap.Logger
	bcryptCost int
}

// NewService cria um novo serviço de usuários
func NewService(repo repository.UserRepository, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// WithBcryptCost ajusta o custo do hash (testes usam bcrypt.MinCost)
func (s *Service) WithBcryptCost(cost int) *Service {
	s.bcryptCost = cost
	return s
}

// List retorna todos os usuários, sem senha
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.InternalServer(MsgListFailed, err)
	}
	return users, nil
}

// Create cadastra um usuário em nome de um usuário autenticado. Validação na
// ordem: campos obrigatórios, elevação de papel, tamanho da senha, duplicidade.
func (s *Service) Create(ctx context.Context, requester *model.User, req validation.CreateUserRequest) (*model.User, error) {
	if err := validation.Check(req); err != nil {
		return nil, validation.BadRequest(err)
	}

	role := model.RoleUser
	if requested, ok := model.ParseRole(req.Role); ok && requested.IsAdmin() {
		if !requester.IsAdmin() {
			s.logger.Warn("Tentativa de criar administrador sem permissão",
				zap.String("requester", requesterName(requester)),
				zap.String("username", req.Username))
			return nil, apperrors.Forbidden(MsgAdminEscalation, apperrors.ErrForbidden)
		}
		role = model.RoleAdmin
	}

	return s.create(ctx, req, role)
}

// Signup é o cadastro público: o papel enviado é ignorado e o usuário é sempre USER
func (s *Service) Signup(ctx context.Context, req validation.CreateUserRequest) (*model.User, error) {
	if err := validation.Check(req); err != nil {
		return nil, validation.BadRequest(err)
	}
	return s.create(ctx, req, model.RoleUser)
}

func (s *Service) create(ctx context.Context, req validation.CreateUserRequest, role model.Role) (*model.User, error) {
	if err := validation.PasswordLength(req.Password); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err).WithDetails([]validation.FieldError{
			{Field: "password", Rule: "min", Message: err.Error()},
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.InternalServer(MsgCreateFailed, err)
	}

	entity := &model.UserEntity{
		Name:     strings.TrimSpace(req.Name),
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Password: string(hash),
		Role:     string(role),
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, apperrors.BadRequest(MsgUsernameTaken, err)
		}
		return nil, apperrors.InternalServer(MsgCreateFailed, err)
	}

	s.logger.Info("Usuário criado",
		zap.String("user_id", entity.ID),
		zap.String("username", entity.Username),
		zap.String("role", entity.Role))

	return entity.ToModel(), nil
}

// Delete remove um usuário; somente ADMIN
func (s *Service) Delete(ctx context.Context, requester *model.User, id string) error {
	if !requester.IsAdmin() {
		return apperrors.Forbidden(MsgAdminOnly, apperrors.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperrors.NotFound("Usuário", err)
		}
		return apperrors.InternalServer(MsgDeleteFailed, err)
	}

	s.logger.Info("Usuário removido", zap.String("user_id", id), zap.String("by", requester.Username))
	return nil
}

func requesterName(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
