package client

import (
	"context"
	"mime"
	"net/http"
	"net/url"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/pkg/report"
	"github.com/ativix/ativix/pkg/validation"
)

// LoginResponse é a resposta de POST /auth/login
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// ActivityFilter são os filtros opcionais da listagem
type ActivityFilter struct {
	Status     string
	AssignedTo string
}

// NewActivity é o corpo de criação de atividade
type NewActivity struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	AssignedTo  *string `json:"assignedTo,omitempty"`
}

// ActivityPatch altera somente os campos não nulos
type ActivityPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Version     int     `json:"version,omitempty"`
}

// Export é um arquivo de relatório baixado do servidor
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

type successResponse struct {
	Success bool `json:"success"`
}

// Login autentica e devolve o token e o usuário
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	in := map[string]string{"username": username, "password": password}
	var out LoginResponse
	if _, err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers lista os usuários cadastrados
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if _, err := c.do(ctx, http.MethodGet, "/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Me devolve o perfil do usuário do token
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if _, err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup faz o cadastro público; o servidor sempre cria USER
func (c *Client) Signup(ctx context.Context, req validation.CreateUserRequest) (*model.User, error) {
	var out model.User
	if _, err := c.do(ctx, http.MethodPost, "/users/signup", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUser cadastra um usuário em nome do usuário logado
func (c *Client) CreateUser(ctx context.Context, req validation.CreateUserRequest) (*model.User, error) {
	var out model.User
	if _, err := c.do(ctx, http.MethodPost, "/users", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser remove um usuário (ADMIN)
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, &successResponse{})
	return err
}

// ListActivities lista atividades com filtros opcionais
func (c *Client) ListActivities(ctx context.Context, f ActivityFilter) ([]model.Activity, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.AssignedTo != "" {
		q.Set("assignedTo", f.AssignedTo)
	}

	var out []model.Activity
	if _, err := c.do(ctx, http.MethodGet, "/atividades", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetActivity busca uma atividade com os comentários
func (c *Client) GetActivity(ctx context.Context, id string) (*model.Activity, error) {
	return c.activity(ctx, http.MethodGet, activityPath(id), nil)
}

// CreateActivity cria uma atividade pendente
func (c *Client) CreateActivity(ctx context.Context, in NewActivity) (*model.Activity, error) {
	return c.activity(ctx, http.MethodPost, "/atividades", in)
}

// UpdateActivity aplica um PATCH; Version zero desliga a verificação
func (c *Client) UpdateActivity(ctx context.Context, id string, patch ActivityPatch) (*model.Activity, error) {
	return c.activity(ctx, http.MethodPatch, activityPath(id), patch)
}

// ConcludeActivity finaliza a atividade em nome do usuário logado
func (c *Client) ConcludeActivity(ctx context.Context, id string, version int) (*model.Activity, error) {
	in := map[string]int{"version": version}
	return c.activity(ctx, http.MethodPost, activityPath(id)+"/concluir", in)
}

// AssignActivity fixa a atividade a um usuário; username vazio remove
func (c *Client) AssignActivity(ctx context.Context, id, username string, version int) (*model.Activity, error) {
	in := map[string]interface{}{"username": username, "version": version}
	return c.activity(ctx, http.MethodPost, activityPath(id)+"/fixar", in)
}

// DeleteActivity remove a atividade e seus comentários (ADMIN)
func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, activityPath(id), nil, nil, &successResponse{})
	return err
}

// AddComment adiciona um comentário de autoria do usuário logado
func (c *Client) AddComment(ctx context.Context, activityID, texto string) (*model.Comment, error) {
	var out model.Comment
	in := map[string]string{"texto": texto}
	if _, err := c.do(ctx, http.MethodPost, activityPath(activityID)+"/comentarios", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditComment altera o texto de um comentário
func (c *Client) EditComment(ctx context.Context, activityID, commentID, texto string) (*model.Comment, error) {
	var out model.Comment
	in := map[string]string{"texto": texto}
	if _, err := c.do(ctx, http.MethodPut, commentPath(activityID, commentID), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment remove um comentário
func (c *Client) DeleteComment(ctx context.Context, activityID, commentID string) error {
	_, err := c.do(ctx, http.MethodDelete, commentPath(activityID, commentID), nil, nil, &successResponse{})
	return err
}

// Report busca um relatório agrupado (ADMIN)
func (c *Client) Report(ctx context.Context, kind model.ReportKind) (*model.Report, error) {
	out := model.Report{Kind: kind}
	if _, err := c.do(ctx, http.MethodGet, "/relatorios/"+url.PathEscape(string(kind)), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportReport baixa o relatório em CSV ou PDF gerado pelo servidor
func (c *Client) ExportReport(ctx context.Context, kind model.ReportKind, format report.Format) (*Export, error) {
	q := url.Values{"format": []string{string(format)}}
	resp, err := c.do(ctx, http.MethodGet, "/relatorios/"+url.PathEscape(string(kind))+"/export", q, nil, nil)
	if err != nil {
		return nil, err
	}

	filename := report.Filename(kind, format)
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}

	return &Export{
		Filename:    filename,
		ContentType: resp.header.Get("Content-Type"),
		Data:        resp.body,
	}, nil
}

func (c *Client) activity(ctx context.Context, method, path string, in interface{}) (*model.Activity, error) {
	var out model.Activity
	if _, err := c.do(ctx, method, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func activityPath(id string) string {
	return "/atividades/" + url.PathEscape(id)
}

func commentPath(activityID, commentID string) string {
	return activityPath(activityID) + "/comentarios/" + url.PathEscape(commentID)
}
