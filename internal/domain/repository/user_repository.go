package repository

import (
	"context"
	"errors"

	"github.com/ativix/ativix/internal/domain/model"
)

var (
	ErrUserNotFound  = errors.New("usuário não encontrado")
	ErrUsernameTaken = errors.New("username já existe")
)

// UserRepository define a interface para armazenamento de usuários
type UserRepository interface {
	// List retorna todos os usuários ordenados por username
	List(ctx context.Context) ([]*model.User, error)

	// GetByID obtém um usuário pelo id
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByUsername retorna a entidade completa, incluindo o hash da senha
	GetByUsername(ctx context.Context, username string) (*model.UserEntity, error)

	// Create persiste um novo usuário; ErrUsernameTaken se o username existir
	Create(ctx context.Context, user *model.UserEntity) error

	// Save cria ou sobrescreve um usuário pelo username
	Save(ctx context.Context, user *model.UserEntity) error

	// Delete remove um usuário pelo id
	Delete(ctx context.Context, id string) error
}
