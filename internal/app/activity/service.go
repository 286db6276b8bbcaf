package activity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/domain/repository"
	apperrors "github.com/ativix/ativix/pkg/errors"
	"github.com/ativix/ativix/pkg/validation"
	"go.uber.org/zap"
)

// Mensagens devolvidas pela API de atividades
const (
	MsgAdminOnly           = "Somente admin"
	MsgNotFound            = "Atividade não encontrada"
	MsgCommentNotFound     = "Comentário não encontrado"
	MsgTitleRequired       = "Título obrigatório"
	MsgTitleTooLong        = "O título deve ter no máximo 200 caracteres"
	MsgCommentRequired     = "Texto do comentário obrigatório"
	MsgCommentTooLong      = "O comentário deve ter no máximo 2000 caracteres"
	MsgInvalidStatus       = "Status inválido"
	MsgInvalidVersion      = "Versão inválida"
	MsgAlreadyDone         = "Atividade já está finalizada"
	MsgInvalidTransition   = "Transição de status inválida"
	MsgAssignNotPending    = "Somente atividades pendentes podem ser fixadas"
	MsgAssigneeNotFound    = "Usuário não encontrado"
	MsgCommentForbidden    = "Somente o autor ou um administrador pode alterar este comentário"
	MsgListFailed          = "Erro ao buscar atividades"
	MsgCreateFailed        = "Erro ao criar atividade"
	MsgUpdateFailed        = "Erro ao atualizar atividade"
	MsgDeleteFailed        = "Erro ao deletar atividade"
	MsgCommentSaveFailed   = "Erro ao salvar comentário"
	MsgCommentDeleteFailed = "Erro ao deletar comentário"
)

// ReportInvalidator descarta relatórios em cache após mudanças nas atividades
type ReportInvalidator interface {
	Invalidate(ctx context.Context)
}

// CreateInput é o corpo de POST /atividades
type CreateInput struct {
	Title       string  `json:"title" binding:"notblank,max=200"`
	Description string  `json:"description"`
	AssignedTo  *string `json:"assignedTo" binding:"omitempty,max=50"`
}

func (CreateInput) ValidationMessages() validation.Messages {
	return validation.Messages{
		"Title.notblank": MsgTitleRequired,
		"Title.max":      MsgTitleTooLong,
		"AssignedTo":     MsgAssigneeNotFound,
	}
}

// UpdateInput é o corpo de PATCH /atividades/:id
type UpdateInput struct {
	Title       *string `json:"title" binding:"omitempty,notblank,max=200"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Version     int     `json:"version" binding:"gte=0"`
}

func (UpdateInput) ValidationMessages() validation.Messages {
	return validation.Messages{
		"Title.notblank": MsgTitleRequired,
		"Title.max":      MsgTitleTooLong,
		"Version":        MsgInvalidVersion,
	}
}

// AssignInput é o corpo de POST /atividades/:id/fixar
type AssignInput struct {
	Username string `json:"username" binding:"max=50"`
	Version  int    `json:"version" binding:"gte=0"`
}

func (AssignInput) ValidationMessages() validation.Messages {
	return validation.Messages{"Username": MsgAssigneeNotFound, "Version": MsgInvalidVersion}
}

// CommentInput é o corpo das rotas de comentário
type CommentInput struct {
	Texto string `json:"texto" binding:"notblank,max=2000"`
}

func (CommentInput) ValidationMessages() validation.Messages {
	return validation.Messages{"Texto.notblank": MsgCommentRequired, "Texto.max": MsgCommentTooLong}
}

// Service aplica as regras de atividades e comentários
type Service struct {
	repo    repository.ActivityRepository
	users   repository.UserRepository
	reports ReportInvalidator
	logger  *zap.Logger
	now     func() time.Time
}

// NewService cria um novo serviço de atividades
func NewService(repo repository.ActivityRepository, users repository.UserRepository, reports ReportInvalidator, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		reports: reports,
		logger:  logger,
		now:     time.Now,
	}
}

// List retorna as atividades filtradas por status e responsável
func (s *Service) List(ctx context.Context, status, assignedTo string) ([]*model.Activity, error) {
	filter := repository.ActivityFilter{AssignedTo: strings.TrimSpace(assignedTo)}
	if status != "" {
		parsed, ok := model.ParseStatus(status)
		if !ok {
			return nil, apperrors.BadRequest(MsgInvalidStatus, apperrors.ErrBadRequest)
		}
		filter.Status = parsed
	}

	activities, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.InternalServer(MsgListFailed, err)
	}
	return activities, nil
}

// Get retorna uma atividade com comentários
func (s *Service) Get(ctx context.Context, id string) (*model.Activity, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, MsgListFailed)
	}
	return a, nil
}

// Create registra uma atividade pendente criada pelo solicitante
func (s *Service) Create(ctx context.Context, requester *model.User, in CreateInput) (*model.Activity, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Check(in); err != nil {
		return nil, validation.BadRequest(err)
	}

	a := &model.Activity{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Status:      model.StatusPending,
		CreatedBy:   requester.Username,
		Comentarios: []model.Comment{},
	}

	if in.AssignedTo != nil && strings.TrimSpace(*in.AssignedTo) != "" {
		if !requester.IsAdmin() {
			return nil, apperrors.Forbidden(MsgAdminOnly, apperrors.ErrForbidden)
		}
		assignee, err := s.checkAssignee(ctx, *in.AssignedTo)
		if err != nil {
			return nil, err
		}
		a.AssignedTo = &assignee
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperrors.InternalServer(MsgCreateFailed, err)
	}

	s.logger.Info("Atividade criada", zap.String("id", a.ID), zap.String("by", requester.Username))
	s.invalidate(ctx)
	return a, nil
}

// Update altera título e descrição (ADMIN) e aceita status "finalizada" de
// qualquer usuário, que equivale a concluir
func (s *Service) Update(ctx context.Context, requester *model.User, id string, in UpdateInput) (*model.Activity, error) {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if err := validation.Check(in); err != nil {
		return nil, validation.BadRequest(err)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, MsgUpdateFailed)
	}

	changes := repository.ActivityChanges{ExpectedVersion: expectedVersion(in.Version, current)}
	dirty := false

	if in.Title != nil || in.Description != nil {
		if !requester.IsAdmin() {
			return nil, apperrors.Forbidden(MsgAdminOnly, apperrors.ErrForbidden)
		}
		changes.Title = in.Title
		if in.Description != nil {
			desc := strings.TrimSpace(*in.Description)
			changes.Description = &desc
		}
		dirty = true
	}

	if in.Status != nil {
		next, ok := model.ParseStatus(*in.Status)
		if !ok {
			return nil, apperrors.BadRequest(MsgInvalidStatus, apperrors.ErrBadRequest)
		}
		if next != current.Status || next == model.StatusDone {
			if !current.CanTransitionTo(next) {
				return nil, transitionError(current, next)
			}
			s.concludeChanges(&changes, requester)
			dirty = true
		}
	}

	if !dirty {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, s.mapError(err, MsgUpdateFailed)
	}

	s.logger.Info("Atividade atualizada", zap.String("id", id), zap.Int("version", updated.Version))
	s.invalidate(ctx)
	return updated, nil
}

// Conclude finaliza a atividade; concluidoPor é sempre o solicitante
func (s *Service) Conclude(ctx context.Context, requester *model.User, id string, version int) (*model.Activity, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, MsgUpdateFailed)
	}
	if !current.CanTransitionTo(model.StatusDone) {
		return nil, transitionError(current, model.StatusDone)
	}

	changes := repository.ActivityChanges{ExpectedVersion: expectedVersion(version, current)}
	s.concludeChanges(&changes, requester)

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, s.mapError(err, MsgUpdateFailed)
	}

	s.logger.Info("Atividade concluída", zap.String("id", id), zap.String("by", requester.Username))
	s.invalidate(ctx)
	return updated, nil
}

// Assign fixa a atividade a um usuário ("Fixar" / "Alterar usuário"). Username
// vazio remove o responsável. Somente ADMIN e somente atividades pendentes.
func (s *Service) Assign(ctx context.Context, requester *model.User, id, username string, version int) (*model.Activity, error) {
	if !requester.IsAdmin() {
		return nil, apperrors.Forbidden(MsgAdminOnly, apperrors.ErrForbidden)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, MsgUpdateFailed)
	}
	if !current.IsPending() {
		return nil, apperrors.BadRequest(MsgAssignNotPending, apperrors.ErrBadRequest)
	}

	var assignee *string
	if strings.TrimSpace(username) != "" {
		name, err := s.checkAssignee(ctx, username)
		if err != nil {
			return nil, err
		}
		assignee = &name
	}

	updated, err := s.repo.Update(ctx, id, repository.ActivityChanges{
		AssignedTo:      &assignee,
		ExpectedVersion: expectedVersion(version, current),
	})
	if err != nil {
		return nil, s.mapError(err, MsgUpdateFailed)
	}

	s.logger.Info("Atividade fixada",
		zap.String("id", id),
		zap.String("assigned_to", strings.TrimSpace(username)),
		zap.String("by", requester.Username))
	s.invalidate(ctx)
	return updated, nil
}

// Delete remove a atividade e seus comentários; somente ADMIN
func (s *Service) Delete(ctx context.Context, requester *model.User, id string) error {
	if !requester.IsAdmin() {
		return apperrors.Forbidden(MsgAdminOnly, apperrors.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError(err, MsgDeleteFailed)
	}

	s.logger.Info("Atividade removida", zap.String("id", id), zap.String("by", requester.Username))
	s.invalidate(ctx)
	return nil
}

// AddComment adiciona um comentário com id próprio, de autoria do solicitante
func (s *Service) AddComment(ctx context.Context, requester *model.User, activityID, texto string) (*model.Comment, error) {
	texto, err := checkComment(texto)
	if err != nil {
		return nil, err
	}

	c := &model.Comment{Autor: requester.Username, Texto: texto}
	if err := s.repo.AddComment(ctx, activityID, c); err != nil {
		return nil, s.mapError(err, MsgCommentSaveFailed)
	}
	return c, nil
}

// EditComment altera o texto; somente o autor ou ADMIN
func (s *Service) EditComment(ctx context.Context, requester *model.User, activityID, commentID, texto string) (*model.Comment, error) {
	texto, err := checkComment(texto)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetComment(ctx, activityID, commentID)
	if err != nil {
		return nil, s.mapError(err, MsgCommentSaveFailed)
	}
	if !current.CanEdit(requester) {
		return nil, apperrors.Forbidden(MsgCommentForbidden, apperrors.ErrForbidden)
	}

	updated, err := s.repo.UpdateComment(ctx, activityID, commentID, texto)
	if err != nil {
		return nil, s.mapError(err, MsgCommentSaveFailed)
	}
	return updated, nil
}

// DeleteComment remove apenas o comentário indicado; somente o autor ou ADMIN
func (s *Service) DeleteComment(ctx context.Context, requester *model.User, activityID, commentID string) error {
	current, err := s.repo.GetComment(ctx, activityID, commentID)
	if err != nil {
		return s.mapError(err, MsgCommentDeleteFailed)
	}
	if !current.CanDelete(requester) {
		return apperrors.Forbidden(MsgCommentForbidden, apperrors.ErrForbidden)
	}

	if err := s.repo.DeleteComment(ctx, activityID, commentID); err != nil {
		return s.mapError(err, MsgCommentDeleteFailed)
	}
	return nil
}

func (s *Service) concludeChanges(changes *repository.ActivityChanges, requester *model.User) {
	done := model.StatusDone
	now := s.now()
	by := requester.Username
	changes.Status = &done
	changes.ConcluidoPor = &by
	changes.CompletedAt = &now
}

func (s *Service) checkAssignee(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", apperrors.BadRequest(MsgAssigneeNotFound, err)
		}
		return "", apperrors.InternalServer(MsgUpdateFailed, err)
	}
	return username, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.reports != nil {
		s.reports.Invalidate(ctx)
	}
}

// mapError traduz os erros do repositório para respostas da API
func (s *Service) mapError(err error, fallback string) error {
	switch {
	case errors.Is(err, repository.ErrActivityNotFound):
		return apperrors.New(http.StatusNotFound, MsgNotFound, err)
	case errors.Is(err, repository.ErrCommentNotFound):
		return apperrors.New(http.StatusNotFound, MsgCommentNotFound, err)
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.Conflict("", err)
	default:
		s.logger.Error(fallback, zap.Error(err))
		return apperrors.InternalServer(fallback, err)
	}
}

// expectedVersion usa a versão enviada pelo cliente ou, sem ela, a versão lida
func expectedVersion(sent int, current *model.Activity) int {
	if sent > 0 {
		return sent
	}
	return current.Version
}

func transitionError(current *model.Activity, next model.Status) error {
	if current.Status == model.StatusDone && next == model.StatusDone {
		return apperrors.BadRequest(MsgAlreadyDone, apperrors.ErrBadRequest)
	}
	return apperrors.BadRequest(MsgInvalidTransition, apperrors.ErrBadRequest)
}

func checkComment(texto string) (string, error) {
	in := CommentInput{Texto: strings.TrimSpace(texto)}
	if err := validation.Check(in); err != nil {
		return "", validation.BadRequest(err)
	}
	return in.Texto, nil
}
