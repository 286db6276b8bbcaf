package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ativix/ativix/internal/app/activity"
	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/infra/metrics"
	apperrors "github.com/ativix/ativix/pkg/errors"
	"github.com/ativix/ativix/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActivityHandler implementa as rotas de atividades e comentários
type ActivityHandler struct {
	base
	activities *activity.Service
}

// NewActivityHandler cria um novo handler de atividades
func NewActivityHandler(activityService *activity.Service, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		base:       newBase(logger),
		activities: activityService,
	}
}

// SetMetrics configura o objeto de métricas
func (h *ActivityHandler) SetMetrics(metrics *metrics.APIMetrics) {
	h.metrics = metrics
}

type versionRequest struct {
	Version int `json:"version" binding:"gte=0"`
}

func (versionRequest) ValidationMessages() validation.Messages {
	return validation.Messages{"Version": activity.MsgInvalidVersion}
}

// List lista atividades com filtros opcionais ?status= e ?assignedTo=
func (h *ActivityHandler) List(c *gin.Context) {
	list, err := h.activities.List(c.Request.Context(), c.Query("status"), c.Query("assignedTo"))
	if err != nil {
		h.respondError(c, err, activity.MsgListFailed)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get devolve uma atividade com seus comentários
func (h *ActivityHandler) Get(c *gin.Context) {
	a, err := h.activities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, activity.MsgListFailed)
		return
	}
	h.respondActivity(c, http.StatusOK, a)
}

// Create cria uma atividade pendente
func (h *ActivityHandler) Create(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	var in activity.CreateInput
	if !h.bindJSON(c, &in, false) {
		return
	}

	a, err := h.activities.Create(c.Request.Context(), requester, in)
	if err != nil {
		h.respondError(c, err, activity.MsgCreateFailed)
		return
	}
	h.event("create")
	h.respondActivity(c, http.StatusCreated, a)
}

// Update aplica PATCH com verificação de versão (corpo ou If-Match)
func (h *ActivityHandler) Update(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	var in activity.UpdateInput
	if !h.bindJSON(c, &in, false) {
		return
	}
	version, ok := h.version(c, in.Version)
	if !ok {
		return
	}
	in.Version = version

	a, err := h.activities.Update(c.Request.Context(), requester, c.Param("id"), in)
	if err != nil {
		h.respondError(c, err, activity.MsgUpdateFailed)
		return
	}
	h.event("update")
	h.respondActivity(c, http.StatusOK, a)
}

// Conclude finaliza a atividade em nome do usuário autenticado
func (h *ActivityHandler) Conclude(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	var req versionRequest
	if !h.bindJSON(c, &req, true) {
		return
	}
	version, ok := h.version(c, req.Version)
	if !ok {
		return
	}

	a, err := h.activities.Conclude(c.Request.Context(), requester, c.Param("id"), version)
	if err != nil {
		h.respondError(c, err, activity.MsgUpdateFailed)
		return
	}
	h.event("conclude")
	h.respondActivity(c, http.StatusOK, a)
}

// Assign fixa a atividade a um usuário, ou remove o responsável com username vazio
func (h *ActivityHandler) Assign(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	var req activity.AssignInput
	if !h.bindJSON(c, &req, true) {
		return
	}
	version, ok := h.version(c, req.Version)
	if !ok {
		return
	}

	a, err := h.activities.Assign(c.Request.Context(), requester, c.Param("id"), req.Username, version)
	if err != nil {
		h.respondError(c, err, activity.MsgUpdateFailed)
		return
	}
	h.event("assign")
	h.respondActivity(c, http.StatusOK, a)
}

// Delete remove a atividade e seus comentários
func (h *ActivityHandler) Delete(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	if err := h.activities.Delete(c.Request.Context(), requester, c.Param("id")); err != nil {
		h.respondError(c, err, activity.MsgDeleteFailed)
		return
	}
	h.event("delete")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddComment adiciona um comentário de autoria do usuário autenticado
func (h *ActivityHandler) AddComment(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	var req activity.CommentInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	comment, err := h.activities.AddComment(c.Request.Context(), requester, c.Param("id"), req.Texto)
	if err != nil {
		h.respondError(c, err, activity.MsgCommentSaveFailed)
		return
	}
	h.commentEvent("add")
	c.JSON(http.StatusCreated, comment)
}

// EditComment altera o texto de um comentário
func (h *ActivityHandler) EditComment(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	var req activity.CommentInput
	if !h.bindJSON(c, &req, false) {
		return
	}

	comment, err := h.activities.EditComment(c.Request.Context(), requester, c.Param("id"), c.Param("commentId"), req.Texto)
	if err != nil {
		h.respondError(c, err, activity.MsgCommentSaveFailed)
		return
	}
	h.commentEvent("edit")
	c.JSON(http.StatusOK, comment)
}

// DeleteComment remove somente o comentário indicado
func (h *ActivityHandler) DeleteComment(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	if err := h.activities.DeleteComment(c.Request.Context(), requester, c.Param("id"), c.Param("commentId")); err != nil {
		h.respondError(c, err, activity.MsgCommentDeleteFailed)
		return
	}
	h.commentEvent("delete")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respondActivity inclui a versão no ETag para uso em If-Match
func (h *ActivityHandler) respondActivity(c *gin.Context, status int, a *model.Activity) {
	c.Header("ETag", fmt.Sprintf(`"%d"`, a.Version))
	c.JSON(status, a)
}

// version usa a versão do corpo ou, na falta dela, o cabeçalho If-Match
func (h *ActivityHandler) version(c *gin.Context, fromBody int) (int, bool) {
	if fromBody > 0 {
		return fromBody, true
	}

	header := strings.TrimSpace(c.GetHeader("If-Match"))
	if header == "" || header == "*" {
		return 0, true
	}
	header = strings.TrimPrefix(header, "W/")
	v, err := strconv.Atoi(strings.Trim(header, `"`))
	if err != nil || v <= 0 {
		h.respondError(c, apperrors.BadRequest(activity.MsgInvalidVersion, apperrors.ErrBadRequest), "")
		return 0, false
	}
	return v, true
}

func (h *ActivityHandler) event(op string) {
	if h.metrics != nil {
		h.metrics.ActivityEvent(op)
	}
}

func (h *ActivityHandler) commentEvent(op string) {
	if h.metrics != nil {
		h.metrics.CommentEvent(op)
	}
}
