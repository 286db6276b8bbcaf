package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ativix/ativix/internal/domain/model"
)

var (
	ErrActivityNotFound = errors.New("atividade não encontrada")
	ErrCommentNotFound  = errors.New("comentário não encontrado")
	ErrVersionConflict  = errors.New("versão da atividade desatualizada")
)

// ActivityFilter restringe a listagem de atividades
type ActivityFilter struct {
	Status     model.Status
	AssignedTo string
}

// ActivityChanges descreve uma escrita na linha da atividade. Campos nil não
// são alterados; ExpectedVersion zero dispensa a verificação de versão.
type ActivityChanges struct {
	Title           *string
	Description     *string
	Status          *model.Status
	ConcluidoPor    *string
	CompletedAt     *time.Time
	AssignedTo      **string
	ExpectedVersion int
}

// ActivityRepository define a interface para atividades e seus comentários
type ActivityRepository interface {
	List(ctx context.Context, filter ActivityFilter) ([]*model.Activity, error)

	// ForReports retorna as atividades usadas nos relatórios, sem comentários
	ForReports(ctx context.Context) ([]model.Activity, error)

	GetByID(ctx context.Context, id string) (*model.Activity, error)

	Create(ctx context.Context, activity *model.Activity) error

	// Update aplica as mudanças com verificação otimista de versão e retorna
	// a atividade resultante. ErrVersionConflict quando a versão não confere.
	Update(ctx context.Context, id string, changes ActivityChanges) (*model.Activity, error)

	// Delete remove a atividade e seus comentários numa única transação
	Delete(ctx context.Context, id string) error

	AddComment(ctx context.Context, activityID string, comment *model.Comment) error

	GetComment(ctx context.Context, activityID, commentID string) (*model.Comment, error)

	UpdateComment(ctx context.Context, activityID, commentID, texto string) (*model.Comment, error)

	DeleteComment(ctx context.Context, activityID, commentID string) error
}
