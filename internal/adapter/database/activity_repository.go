package database

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// ActivityRepository implementa repository.ActivityRepository
type ActivityRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	tracer trace.Tracer
}

// NewActivityRepository cria um novo repositório de atividades
func NewActivityRepository(db *gorm.DB, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
		tracer: otel.GetTracerProvider().Tracer("ativix.repository.activity"),
	}
}

func (r *ActivityRepository) startSpan(ctx context.Context, name, operation, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.operation", operation),
		attribute.String("db.table", table),
	)
	return r.tracer.Start(ctx, "ActivityRepository."+name, trace.WithAttributes(attrs...))
}

func failSpan(span trace.Span, err error) {
	span.SetStatus(codes.Error, "database error")
	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String("error.message", err.Error()),
	)
}

func orderedComments(db *gorm.DB) *gorm.DB {
	return db.Order("created_at, id")
}

// List retorna as atividades com comentários, mais antigas primeiro
func (r *ActivityRepository) List(ctx context.Context, filter repository.ActivityFilter) ([]*model.Activity, error) {
	ctx, span := r.startSpan(ctx, "List", "select", "atividades")
	defer span.End()

	query := r.db.WithContext(ctx).Preload("Comments", orderedComments)
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.AssignedTo != "" {
		query = query.Where("assigned_to = ?", filter.AssignedTo)
	}

	var entities []model.ActivityEntity
	if err := query.Order("created_at, id").Find(&entities).Error; err != nil {
		r.logger.Error("falha ao buscar atividades", zap.Error(err))
		failSpan(span, err)
		return nil, fmt.Errorf("falha ao buscar atividades: %w", err)
	}

	activities := make([]*model.Activity, 0, len(entities))
	for i := range entities {
		activities = append(activities, entities[i].ToModel())
	}

	span.SetAttributes(attribute.Int("activities.count", len(activities)))
	return activities, nil
}

// ForReports retorna as atividades sem comentários para agrupamento
func (r *ActivityRepository) ForReports(ctx context.Context) ([]model.Activity, error) {
	ctx, span := r.startSpan(ctx, "ForReports", "select", "atividades")
	defer span.End()

	var entities []model.ActivityEntity
	if err := r.db.WithContext(ctx).
		Where("status = ? OR assigned_to IS NOT NULL", string(model.StatusDone)).
		Find(&entities).Error; err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("falha ao buscar atividades para relatório: %w", err)
	}

	activities := make([]model.Activity, 0, len(entities))
	for i := range entities {
		activities = append(activities, *entities[i].ToModel())
	}
	return activities, nil
}

// GetByID obtém uma atividade com seus comentários
func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*model.Activity, error) {
	ctx, span := r.startSpan(ctx, "GetByID", "select", "atividades", attribute.String("activity.id", id))
	defer span.End()

	var entity model.ActivityEntity
	err := r.db.WithContext(ctx).
		Preload("Comments", orderedComments).
		Where("id = ?", id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetAttributes(attribute.Bool("activity.found", false))
			return nil, repository.ErrActivityNotFound
		}
		failSpan(span, err)
		return nil, fmt.Errorf("falha ao buscar atividade: %w", err)
	}

	return entity.ToModel(), nil
}

// Create insere uma nova atividade na versão 1
func (r *ActivityRepository) Create(ctx context.Context, activity *model.Activity) error {
	ctx, span := r.startSpan(ctx, "Create", "insert", "atividades")
	defer span.End()

	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.Version == 0 {
		activity.Version = 1
	}

	entity := &model.ActivityEntity{
		ID:          activity.ID,
		Title:       activity.Title,
		Description: activity.Description,
		Status:      string(activity.Status),
		AssignedTo:  activity.AssignedTo,
		CreatedBy:   activity.CreatedBy,
		Version:     activity.Version,
	}
	if !activity.CreatedAt.IsZero() {
		entity.CreatedAt = activity.CreatedAt
	}
	if activity.Status == model.StatusDone {
		entity.ConcluidoPor = activity.ConcluidoPor
		entity.CompletedAt = activity.CompletedAt
	}

	if err := r.db.WithContext(ctx).Omit("Comments").Create(entity).Error; err != nil {
		r.logger.Error("falha ao criar atividade", zap.String("title", activity.Title), zap.Error(err))
		failSpan(span, err)
		return fmt.Errorf("falha ao criar atividade: %w", err)
	}

	activity.CreatedAt = entity.CreatedAt
	activity.UpdatedAt = entity.UpdatedAt
	if activity.Comentarios == nil {
		activity.Comentarios = []model.Comment{}
	}
	span.SetAttributes(attribute.String("activity.id", activity.ID))
	return nil
}

// Update grava as mudanças com UPDATE ... WHERE id = ? AND version = ?,
// incrementando a versão
func (r *ActivityRepository) Update(ctx context.Context, id string, changes repository.ActivityChanges) (*model.Activity, error) {
	ctx, span := r.startSpan(ctx, "Update", "update", "atividades",
		attribute.String("activity.id", id),
		attribute.Int("activity.expected_version", changes.ExpectedVersion),
	)
	defer span.End()

	updates := map[string]interface{}{
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
	if changes.Title != nil {
		updates["title"] = *changes.Title
	}
	if changes.Description != nil {
		updates["description"] = *changes.Description
	}
	if changes.Status != nil {
		updates["status"] = string(*changes.Status)
	}
	if changes.ConcluidoPor != nil {
		updates["concluido_por"] = *changes.ConcluidoPor
	}
	if changes.CompletedAt != nil {
		updates["completed_at"] = *changes.CompletedAt
	}
	if changes.AssignedTo != nil {
		if *changes.AssignedTo == nil {
			updates["assigned_to"] = gorm.Expr("NULL")
		} else {
			updates["assigned_to"] = **changes.AssignedTo
		}
	}

	query := r.db.WithContext(ctx).Model(&model.ActivityEntity{}).Where("id = ?", id)
	if changes.ExpectedVersion > 0 {
		query = query.Where("version = ?", changes.ExpectedVersion)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		r.logger.Error("falha ao atualizar atividade", zap.String("id", id), zap.Error(result.Error))
		failSpan(span, result.Error)
		return nil, fmt.Errorf("falha ao atualizar atividade: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		exists, err := r.exists(ctx, id)
		if err != nil {
			failSpan(span, err)
			return nil, err
		}
		if !exists {
			return nil, repository.ErrActivityNotFound
		}
		span.SetAttributes(attribute.Bool("activity.version_conflict", true))
		return nil, repository.ErrVersionConflict
	}

	return r.GetByID(ctx, id)
}

func (r *ActivityRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ActivityEntity{}).
		Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("falha ao verificar atividade: %w", err)
	}
	return count > 0, nil
}

// Delete remove a atividade e os comentários numa transação
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.startSpan(ctx, "Delete", "delete", "atividades", attribute.String("activity.id", id))
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("activity_id = ?", id).Delete(&model.CommentEntity{}).Error; err != nil {
			return fmt.Errorf("falha ao remover comentários: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&model.ActivityEntity{})
		if result.Error != nil {
			return fmt.Errorf("falha ao remover atividade: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repository.ErrActivityNotFound
		}
		return nil
	})

	if err != nil && !errors.Is(err, repository.ErrActivityNotFound) {
		r.logger.Error("falha ao remover atividade", zap.String("id", id), zap.Error(err))
		failSpan(span, err)
	}
	return err
}

// AddComment insere um comentário como uma linha independente
func (r *ActivityRepository) AddComment(ctx context.Context, activityID string, comment *model.Comment) error {
	ctx, span := r.startSpan(ctx, "AddComment", "insert", "comentarios", attribute.String("activity.id", activityID))
	defer span.End()

	exists, err := r.exists(ctx, activityID)
	if err != nil {
		failSpan(span, err)
		return err
	}
	if !exists {
		return repository.ErrActivityNotFound
	}

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	entity := &model.CommentEntity{
		ID:         comment.ID,
		ActivityID: activityID,
		Autor:      comment.Autor,
		Texto:      comment.Texto,
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		failSpan(span, err)
		return fmt.Errorf("falha ao criar comentário: %w", err)
	}

	comment.CreatedAt = entity.CreatedAt
	comment.UpdatedAt = entity.UpdatedAt
	return nil
}

// GetComment obtém um comentário de uma atividade pelo id
func (r *ActivityRepository) GetComment(ctx context.Context, activityID, commentID string) (*model.Comment, error) {
	ctx, span := r.startSpan(ctx, "GetComment", "select", "comentarios", attribute.String("comment.id", commentID))
	defer span.End()

	var entity model.CommentEntity
	err := r.db.WithContext(ctx).
		Where("id = ? AND activity_id = ?", commentID, activityID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCommentNotFound
		}
		failSpan(span, err)
		return nil, fmt.Errorf("falha ao buscar comentário: %w", err)
	}

	c := entity.ToModel()
	return &c, nil
}

// UpdateComment altera apenas o texto do comentário indicado
func (r *ActivityRepository) UpdateComment(ctx context.Context, activityID, commentID, texto string) (*model.Comment, error) {
	ctx, span := r.startSpan(ctx, "UpdateComment", "update", "comentarios", attribute.String("comment.id", commentID))
	defer span.End()

	result := r.db.WithContext(ctx).Model(&model.CommentEntity{}).
		Where("id = ? AND activity_id = ?", commentID, activityID).
		Updates(map[string]interface{}{
			"texto":      texto,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		failSpan(span, result.Error)
		return nil, fmt.Errorf("falha ao atualizar comentário: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrCommentNotFound
	}

	return r.GetComment(ctx, activityID, commentID)
}

// DeleteComment remove somente o comentário indicado
func (r *ActivityRepository) DeleteComment(ctx context.Context, activityID, commentID string) error {
	ctx, span := r.startSpan(ctx, "DeleteComment", "delete", "comentarios", attribute.String("comment.id", commentID))
	defer span.End()

	result := r.db.WithContext(ctx).
		Where("id = ? AND activity_id = ?", commentID, activityID).
		Delete(&model.CommentEntity{})
	if result.Error != nil {
		failSpan(span, result.Error)
		return fmt.Errorf("falha ao remover comentário: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrCommentNotFound
	}
	return nil
}
