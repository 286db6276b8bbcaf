package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/pkg/report"
	"github.com/ativix/ativix/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]interface{}
}

// newTestClient sobe um servidor que registra cada chamada e responde com handler
func newTestClient(t *testing.T, token string, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
		}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			require.NoError(t, json.Unmarshal(data, &rec.body))
		}
		calls = append(calls, rec)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, StaticToken(token), zaptest.NewLogger(t))
	require.NoError(t, err)
	return c, &calls
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("localhost:8080", nil, nil)
	assert.Error(t, err)

	_, err = New("ftp://x", nil, nil)
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	c, calls := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token": "jwt",
			"user":  map[string]string{"id": "1", "username": "maria", "role": "ADMIN"},
		})
	})

	resp, err := c.Login(context.Background(), "maria", "segredo")
	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.Token)
	assert.True(t, resp.User.IsAdmin())

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/auth/login", call.path)
	assert.Empty(t, call.auth)
	assert.Equal(t, "maria", call.body["username"])
}

func TestErrorMapping(t *testing.T) {
	t.Run("mensagem do servidor", func(t *testing.T) {
		c, _ := newTestClient(t, "tk", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Somente admin"})
		})

		err := c.DeleteUser(context.Background(), "42")
		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusForbidden, apiErr.Status)
		assert.Equal(t, "Somente admin", apiErr.Message)
	})

	t.Run("corpo sem error usa mensagem genérica", func(t *testing.T) {
		c, _ := newTestClient(t, "tk", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		})

		_, err := c.ListUsers(context.Background())
		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadGateway, apiErr.Status)
		assert.Equal(t, MsgUnexpected, apiErr.Message)
	})

	t.Run("falha de rede", func(t *testing.T) {
		c, err := New("http://127.0.0.1:1", nil, nil)
		require.NoError(t, err)

		_, err = c.ListUsers(context.Background())
		var apiErr *Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 0, apiErr.Status)
		assert.NotNil(t, apiErr.Unwrap())
	})
}

func TestActivityEndpoints(t *testing.T) {
	activity := map[string]interface{}{"id": "a1", "title": "Trocar toner", "status": "pendente", "version": 2}

	c, calls := newTestClient(t, "tk", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/atividades":
			writeJSON(w, http.StatusOK, []interface{}{activity})
		case r.Method == http.MethodDelete:
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		default:
			writeJSON(w, http.StatusOK, activity)
		}
	})
	ctx := context.Background()

	list, err := c.ListActivities(ctx, ActivityFilter{Status: "pendente", AssignedTo: "joao"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Version)

	_, err = c.ConcludeActivity(ctx, "a1", 2)
	require.NoError(t, err)

	_, err = c.AssignActivity(ctx, "a1", "joao", 3)
	require.NoError(t, err)

	status := "finalizada"
	_, err = c.UpdateActivity(ctx, "a1", ActivityPatch{Status: &status})
	require.NoError(t, err)

	require.NoError(t, c.DeleteComment(ctx, "a1", "c 1"))

	got := *calls
	require.Len(t, got, 5)
	for _, call := range got {
		assert.Equal(t, "Bearer tk", call.auth)
	}

	assert.Equal(t, "assignedTo=joao&status=pendente", got[0].query)

	assert.Equal(t, "/atividades/a1/concluir", got[1].path)
	assert.EqualValues(t, 2, got[1].body["version"])

	assert.Equal(t, "/atividades/a1/fixar", got[2].path)
	assert.Equal(t, "joao", got[2].body["username"])

	assert.Equal(t, http.MethodPatch, got[3].method)
	assert.Equal(t, "finalizada", got[3].body["status"])
	_, hasTitle := got[3].body["title"]
	assert.False(t, hasTitle)

	assert.Equal(t, http.MethodDelete, got[4].method)
	assert.Equal(t, "/atividades/a1/comentarios/c 1", got[4].path)
}

func TestCreateUser(t *testing.T) {
	c, calls := newTestClient(t, "tk", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{"id": "7", "username": "ana", "role": "USER"})
	})

	form := validation.RegistrationForm{Name: "Ana", Username: "ana", Password: "123456", Confirm: "123456", Admin: true}
	u, err := c.CreateUser(context.Background(), form.Request(nil))
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, "USER", (*calls)[0].body["role"])
}

func TestReport(t *testing.T) {
	c, calls := newTestClient(t, "tk", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"maria": map[string]interface{}{
				"2024-03-01": []map[string]string{{"id": "a1", "title": "Backup"}},
			},
		})
	})

	r, err := c.Report(context.Background(), model.ReportByDay)
	require.NoError(t, err)
	assert.Equal(t, model.ReportByDay, r.Kind)
	assert.Equal(t, "/relatorios/dia", (*calls)[0].path)

	rows := report.Rows(r)
	require.Len(t, rows, 1)
	assert.Equal(t, "maria", rows[0].User)
	assert.Equal(t, "2024-03-01", rows[0].Key)
	assert.Equal(t, "Backup", rows[0].Title)
}

func TestExportReport(t *testing.T) {
	c, calls := newTestClient(t, "tk", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="relatorio-semana.csv"`)
		_, _ = w.Write([]byte("Usuário,Chave,Atividade\n"))
	})

	exp, err := c.ExportReport(context.Background(), model.ReportByWeek, report.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "relatorio-semana.csv", exp.Filename)
	assert.Equal(t, "Usuário,Chave,Atividade\n", string(exp.Data))
	assert.Equal(t, "format=csv", (*calls)[0].query)
}

func TestContextCancel(t *testing.T) {
	c, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []interface{}{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListUsers(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
