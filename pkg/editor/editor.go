// Package editor reúne as ações do cartão de atividade da CLI: concluir, fixar,
// excluir e manter comentários. Toda falha vira um *OpError com o texto de
// alerta em português; todo sucesso publica um evento no Notifier.
package editor

import (
	"context"
	"errors"
	"strings"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/pkg/client"
	"go.uber.org/zap"
)

// Textos de alerta exibidos ao usuário
const (
	MsgConcludeFailed      = "Erro ao concluir a atividade."
	MsgAssignFailed        = "Erro ao fixar a atividade."
	MsgDeleteFailed        = "Erro ao deletar atividade."
	MsgAddCommentFailed    = "Erro ao adicionar comentário."
	MsgEditCommentFailed   = "Erro ao atualizar comentário."
	MsgDeleteCommentFailed = "Erro ao deletar comentário."

	ConfirmDelete = "Tem certeza que deseja excluir esta atividade?"
)

// OpError é a falha de uma ação do editor
type OpError struct {
	Op      Op
	Message string
	Err     error
}

func (e *OpError) Error() string {
	return e.Message
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Detail é o texto devolvido pelo servidor, quando houver
func (e *OpError) Detail() string {
	var apiErr *client.Error
	if errors.As(e.Err, &apiErr) {
		return apiErr.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// API são as chamadas usadas pelo editor; *client.Client a implementa
type API interface {
	ConcludeActivity(ctx context.Context, id string, version int) (*model.Activity, error)
	AssignActivity(ctx context.Context, id, username string, version int) (*model.Activity, error)
	DeleteActivity(ctx context.Context, id string) error
	AddComment(ctx context.Context, activityID, texto string) (*model.Comment, error)
	EditComment(ctx context.Context, activityID, commentID, texto string) (*model.Comment, error)
	DeleteComment(ctx context.Context, activityID, commentID string) error
}

// Confirmer faz uma pergunta bloqueante de sim/não
type Confirmer interface {
	Confirm(question string) bool
}

// ConfirmFunc adapta uma função a Confirmer
type ConfirmFunc func(question string) bool

func (f ConfirmFunc) Confirm(question string) bool {
	return f(question)
}

// Editor executa as ações em nome do usuário logado
type Editor struct {
	api      API
	notifier *Notifier
	confirm  Confirmer
	logger   *zap.Logger
}

// New cria o editor; sem Confirmer a exclusão nunca é confirmada
func New(api API, notifier *Notifier, confirm Confirmer, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewNotifier(logger)
	}
	return &Editor{api: api, notifier: notifier, confirm: confirm, logger: logger}
}

// Notifier devolve o notifier em que as telas se inscrevem
func (e *Editor) Notifier() *Notifier {
	return e.notifier
}

// Conclude finaliza a atividade; o servidor registra quem concluiu
func (e *Editor) Conclude(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	updated, err := e.api.ConcludeActivity(ctx, a.ID, a.Version)
	if err != nil {
		return nil, e.fail(OpConclude, MsgConcludeFailed, a.ID, err)
	}
	e.publish(ctx, OpConclude, a.ID)
	return updated, nil
}

// Assign fixa a atividade a um usuário; username vazio remove o responsável
func (e *Editor) Assign(ctx context.Context, a *model.Activity, username string) (*model.Activity, error) {
	updated, err := e.api.AssignActivity(ctx, a.ID, strings.TrimSpace(username), a.Version)
	if err != nil {
		return nil, e.fail(OpAssign, MsgAssignFailed, a.ID, err)
	}
	e.publish(ctx, OpAssign, a.ID)
	return updated, nil
}

// Delete pergunta antes de excluir. Devolve false quando o usuário recusa.
func (e *Editor) Delete(ctx context.Context, a *model.Activity) (bool, error) {
	if e.confirm == nil || !e.confirm.Confirm(ConfirmDelete) {
		return false, nil
	}
	if err := e.api.DeleteActivity(ctx, a.ID); err != nil {
		return false, e.fail(OpDelete, MsgDeleteFailed, a.ID, err)
	}
	e.publish(ctx, OpDelete, a.ID)
	return true, nil
}

// AddComment ignora texto em branco sem chamar o servidor
func (e *Editor) AddComment(ctx context.Context, a *model.Activity, texto string) (*model.Comment, error) {
	texto = strings.TrimSpace(texto)
	if texto == "" {
		return nil, nil
	}

	c, err := e.api.AddComment(ctx, a.ID, texto)
	if err != nil {
		return nil, e.fail(OpAddComment, MsgAddCommentFailed, a.ID, err)
	}
	e.publish(ctx, OpAddComment, a.ID)
	return c, nil
}

// EditComment troca o texto do comentário pelo id; texto em branco é ignorado
// como em AddComment
func (e *Editor) EditComment(ctx context.Context, a *model.Activity, commentID, texto string) (*model.Comment, error) {
	texto = strings.TrimSpace(texto)
	if texto == "" {
		return nil, nil
	}

	c, err := e.api.EditComment(ctx, a.ID, commentID, texto)
	if err != nil {
		return nil, e.fail(OpEditComment, MsgEditCommentFailed, a.ID, err)
	}
	e.publish(ctx, OpEditComment, a.ID)
	return c, nil
}

// DeleteComment remove somente o comentário indicado
func (e *Editor) DeleteComment(ctx context.Context, a *model.Activity, commentID string) error {
	if err := e.api.DeleteComment(ctx, a.ID, commentID); err != nil {
		return e.fail(OpDeleteComment, MsgDeleteCommentFailed, a.ID, err)
	}
	e.publish(ctx, OpDeleteComment, a.ID)
	return nil
}

func (e *Editor) fail(op Op, msg, activityID string, err error) *OpError {
	e.logger.Error(msg,
		zap.String("op", string(op)),
		zap.String("activity_id", activityID),
		zap.Error(err))
	return &OpError{Op: op, Message: msg, Err: err}
}

// publish não altera o resultado da ação: falhas dos inscritos só vão para o log
func (e *Editor) publish(ctx context.Context, op Op, activityID string) {
	e.notifier.Publish(ctx, Event{Op: op, ActivityID: activityID})
}
