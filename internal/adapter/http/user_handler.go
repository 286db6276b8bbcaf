package http

import (
	"net/http"

	"github.com/ativix/ativix/internal/app/auth"
	"github.com/ativix/ativix/internal/app/user"
	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/infra/metrics"
	apperrors "github.com/ativix/ativix/pkg/errors"
	"github.com/ativix/ativix/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler implementa login e cadastro de usuários
type UserHandler struct {
	base
	auth  *auth.AuthService
	users *user.Service
}

// NewUserHandler cria um novo handler de usuários
func NewUserHandler(authService *auth.AuthService, userService *user.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		base:  newBase(logger),
		auth:  authService,
		users: userService,
	}
}

// SetMetrics configura o objeto de métricas
func (h *UserHandler) SetMetrics(metrics *metrics.APIMetrics) {
	h.metrics = metrics
}

// LoginRequest é o corpo de POST /auth/login
type LoginRequest = validation.Credentials

// LoginResponse devolve o token e o perfil do usuário
type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login autentica e emite o token
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	token, u, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.LoginAttempt("failure")
		}
		h.respondError(c, err, "Erro ao autenticar")
		return
	}

	if h.metrics != nil {
		h.metrics.LoginAttempt("success")
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, User: u})
}

// List lista os usuários, sem senha
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, user.MsgListFailed)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Me devolve o perfil do usuário autenticado
func (h *UserHandler) Me(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, requester)
}

// Signup é o cadastro público; o papel é sempre USER
func (h *UserHandler) Signup(c *gin.Context) {
	var req validation.CreateUserRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	u, err := h.users.Signup(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, user.MsgCreateFailed)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// Create cadastra um usuário em nome do usuário autenticado
func (h *UserHandler) Create(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	var req validation.CreateUserRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	u, err := h.users.Create(c.Request.Context(), requester, req)
	if err != nil {
		h.respondError(c, err, user.MsgCreateFailed)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// Delete remove um usuário (ADMIN)
func (h *UserHandler) Delete(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		h.respondError(c, apperrors.BadRequest("id obrigatório", apperrors.ErrBadRequest), "")
		return
	}

	if err := h.users.Delete(c.Request.Context(), requester, id); err != nil {
		h.respondError(c, err, user.MsgDeleteFailed)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
