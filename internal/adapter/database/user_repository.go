package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/domain/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserRepository implementa repository.UserRepository
type UserRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	tracer trace.Tracer
}

// NewUserRepository cria um novo repositório de usuários
func NewUserRepository(db *gorm.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
		tracer: otel.GetTracerProvider().Tracer("ativix.repository.user"),
	}
}

func (r *UserRepository) startSpan(ctx context.Context, name, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.operation", operation),
		attribute.String("db.table", "users"),
	)
	return r.tracer.Start(ctx, "UserRepository."+name, trace.WithAttributes(attrs...))
}

// List retorna todos os usuários ordenados por username
func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	ctx, span := r.startSpan(ctx, "List", "select")
	defer span.End()

	var entities []model.UserEntity
	if err := r.db.WithContext(ctx).Order("username").Find(&entities).Error; err != nil {
		r.logger.Error("falha ao buscar usuários", zap.Error(err))
		span.SetStatus(codes.Error, "database error")
		return nil, fmt.Errorf("falha ao buscar usuários: %w", err)
	}

	users := make([]*model.User, 0, len(entities))
	for i := range entities {
		users = append(users, entities[i].ToModel())
	}

	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}

// GetByID obtém um usuário pelo id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	ctx, span := r.startSpan(ctx, "GetByID", "select", attribute.String("user.id", id))
	defer span.End()

	var entity model.UserEntity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetAttributes(attribute.Bool("user.found", false))
			return nil, repository.ErrUserNotFound
		}
		span.SetStatus(codes.Error, "database error")
		return nil, fmt.Errorf("falha ao buscar usuário: %w", err)
	}

	return entity.ToModel(), nil
}

// GetByUsername retorna a entidade com o hash da senha, usada na autenticação
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.UserEntity, error) {
	ctx, span := r.startSpan(ctx, "GetByUsername", "select")
	defer span.End()

	var entity model.UserEntity
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		span.SetStatus(codes.Error, "database error")
		return nil, fmt.Errorf("falha ao buscar usuário: %w", err)
	}

	return &entity, nil
}

// Create persiste um novo usuário
func (r *UserRepository) Create(ctx context.Context, user *model.UserEntity) error {
	ctx, span := r.startSpan(ctx, "Create", "insert")
	defer span.End()

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.UserEntity{}).
		Where("username = ?", user.Username).Count(&count).Error; err != nil {
		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao verificar username: %w", err)
	}
	if count > 0 {
		return repository.ErrUsernameTaken
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrUsernameTaken
		}
		r.logger.Error("falha ao criar usuário", zap.String("username", user.Username), zap.Error(err))
		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao criar usuário: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	return nil
}

// Save cria o usuário ou sobrescreve senha, papel e dados de um username existente
func (r *UserRepository) Save(ctx context.Context, user *model.UserEntity) error {
	ctx, span := r.startSpan(ctx, "Save", "upsert")
	defer span.End()

	var existing model.UserEntity
	err := r.db.WithContext(ctx).Where("username = ?", user.Username).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.Create(ctx, user)
	case err != nil:
		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao buscar usuário: %w", err)
	}

	user.ID = existing.ID
	user.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao atualizar usuário: %w", err)
	}
	return nil
}

// Delete remove um usuário pelo id
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.startSpan(ctx, "Delete", "delete", attribute.String("user.id", id))
	defer span.End()

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.UserEntity{})
	if result.Error != nil {
		r.logger.Error("falha ao remover usuário", zap.String("id", id), zap.Error(result.Error))
		span.SetStatus(codes.Error, "database error")
		return fmt.Errorf("falha ao remover usuário: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// Diagnose descreve como o usuário está armazenado, sem expor o hash
func (r *UserRepository) Diagnose(ctx context.Context, username string) (string, error) {
	entity, err := r.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"Diagnóstico para usuário: %s\n"+
			"----------------------------\n"+
			"ID: %s\n"+
			"Tipo de banco: %s\n"+
			"Tamanho do hash de senha: %d\n"+
			"Nome: %s\n"+
			"Email: %s\n"+
			"Role: %s\n"+
			"CreatedAt: %v\n",
		username,
		entity.ID,
		r.db.Dialector.Name(),
		len(entity.Password),
		entity.Name,
		entity.Email,
		entity.Role,
		entity.CreatedAt,
	), nil
}
