// Package client é o cliente da API do Ativix usado pela CLI. Cada método faz
// exatamente uma chamada HTTP, sem retentativas; o cancelamento vem do context.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MsgUnexpected é a mensagem usada quando o servidor não explica o erro
const MsgUnexpected = "Erro inesperado ao comunicar com o servidor."

// Error é a falha de uma chamada: o status HTTP e o texto de "error" do corpo
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TokenSource fornece o token de sessão; vazio significa chamada anônima
type TokenSource interface {
	Token() string
}

// StaticToken é um TokenSource fixo
type StaticToken string

func (t StaticToken) Token() string {
	return string(t)
}

// Client fala com o servidor Ativix
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

// New cria o cliente para a URL base (ex.: http://localhost:8080)
func New(baseURL string, tokens TokenSource, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("URL do servidor inválida: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL do servidor inválida: %q", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{},
		tokens:  tokens,
		logger:  logger,
	}, nil
}

// WithHTTPClient troca o http.Client usado (testes, proxies)
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// response guarda o que os métodos precisam além do corpo decodificado
type response struct {
	header http.Header
	body   []byte
}

// endpoint concatena o path já escapado à URL base
func (c *Client) endpoint(path string, query url.Values) string {
	s := c.baseURL.String() + path
	if len(query) > 0 {
		s += "?" + query.Encode()
	}
	return s
}

// do executa uma chamada. Com out != nil o corpo de sucesso é decodificado em out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) (*response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, &Error{Message: MsgUnexpected, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, &Error{Message: MsgUnexpected, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("Falha na chamada", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, &Error{Message: MsgUnexpected, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: MsgUnexpected, Err: err}
	}

	c.logger.Debug("Chamada concluída",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, data)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, &Error{Status: resp.StatusCode, Message: MsgUnexpected, Err: err}
		}
	}
	return &response{header: resp.Header, body: data}, nil
}

func decodeError(status int, data []byte) *Error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return &Error{Status: status, Message: payload.Error}
	}
	return &Error{Status: status, Message: MsgUnexpected}
}
