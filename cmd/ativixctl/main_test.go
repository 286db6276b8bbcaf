package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ativix/ativix/internal/adapter/database"
	"github.com/ativix/ativix/internal/app"
	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/internal/testutils"
	"github.com/ativix/ativix/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	t   *testing.T
	app *app.App
	cli *cli
	out *bytes.Buffer
	in  *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("JWT_SECRET", "")

	cfg := config.Default()
	cfg.Auth.JWTSecret = "ativixctl-test-secret-0123456789abcdef"
	cfg.Cache.Type = "memory"
	cfg.RateLimit.Enabled = false
	cfg.Reports.Timezone = "UTC"
	cfg.Metrics.Enabled = false

	a, err := app.NewAppWithDatabase(context.Background(), cfg, testutils.NewTestDatabase(t), testutils.TestLogger(t))
	require.NoError(t, err)

	router := testutils.SetupTestRouter(t)
	a.RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	h := &harness{t: t, app: a, out: &bytes.Buffer{}, in: &bytes.Buffer{}}
	h.cli, err = newCLI(ctlConfig{URL: srv.URL, SessionDir: t.TempDir()}, h.in, h.out, testutils.TestLogger(t))
	require.NoError(t, err)
	return h
}

func (h *harness) seedUser(username string, role model.Role) {
	hash, err := bcrypt.GenerateFromPassword([]byte("segredo"), bcrypt.MinCost)
	require.NoError(h.t, err)
	repo := database.NewUserRepository(h.app.DB.DB(), testutils.TestLogger(h.t))
	require.NoError(h.t, repo.Create(context.Background(), &model.UserEntity{
		Name: username, Username: username, Password: string(hash), Role: string(role),
	}))
}

// run executa um comando e devolve a saída produzida por ele
func (h *harness) run(args ...string) (string, error) {
	h.out.Reset()
	err := h.cli.run(context.Background(), args)
	return h.out.String(), err
}

func (h *harness) onlyActivityID() string {
	var ids []string
	require.NoError(h.t, h.app.DB.DB().Model(&model.ActivityEntity{}).Pluck("id", &ids).Error)
	require.Len(h.t, ids, 1)
	return ids[0]
}

func TestCLI_RequiresSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("atividades", "listar")
	assert.ErrorIs(t, err, errNoSession)

	_, err = h.run("nao-existe")
	assert.Error(t, err)
}

func TestCLI_ActivityFlow(t *testing.T) {
	h := newHarness(t)
	h.seedUser("ana", model.RoleAdmin)
	h.seedUser("joao", model.RoleUser)

	out, err := h.run("login", "-u", "ana", "-p", "segredo")
	require.NoError(t, err)
	assert.Contains(t, out, "Bem-vindo, ana (ADMIN)")

	out, err = h.run("menu")
	require.NoError(t, err)
	assert.Contains(t, out, "/admin/relatorios")

	_, err = h.run("atividades", "criar", "-t", "Trocar toner", "-para", "joao")
	require.NoError(t, err)
	id := h.onlyActivityID()

	out, err = h.run("atividades", "listar", "-status", "pendente")
	require.NoError(t, err)
	assert.Contains(t, out, "Trocar toner")
	assert.Contains(t, out, "joao")

	_, err = h.run("comentarios", "adicionar", id, "aguardando", "peça")
	require.NoError(t, err)

	out, err = h.run("atividades", "concluir", id)
	require.NoError(t, err)
	assert.Contains(t, out, "[finalizada]")
	assert.Contains(t, out, "Concluída por: ana")
	assert.Contains(t, out, "Atividades pendentes: 0")

	out, err = h.run("relatorios", "usuarios", "-grafico")
	require.NoError(t, err)
	assert.Contains(t, out, "Concluídas por Usuário")
	assert.Contains(t, out, "Trocar toner")

	out, err = h.run("atividades", "concluir", id)
	require.Error(t, err)
	assert.Equal(t, "Erro ao concluir a atividade. Atividade já está finalizada", describe(err))
	assert.NotContains(t, out, "Atividades pendentes")
}

func TestCLI_DeleteAsksForConfirmation(t *testing.T) {
	h := newHarness(t)
	h.seedUser("ana", model.RoleAdmin)
	_, err := h.run("login", "-u", "ana", "-p", "segredo")
	require.NoError(t, err)
	_, err = h.run("atividades", "criar", "-t", "Backup")
	require.NoError(t, err)
	id := h.onlyActivityID()

	h.in.WriteString("n\n")
	_, err = h.run("atividades", "remover", id)
	require.NoError(t, err)
	h.onlyActivityID()

	out, err := h.run("-y", "atividades", "remover", id)
	require.NoError(t, err)
	assert.Contains(t, out, "removida")
}

func TestCLI_RegistrationForm(t *testing.T) {
	h := newHarness(t)
	h.seedUser("joao", model.RoleUser)
	_, err := h.run("login", "-u", "joao", "-p", "segredo")
	require.NoError(t, err)

	_, err = h.run("usuarios", "cadastrar", "-name", "Bia", "-username", "bia", "-password", "123456", "-confirm", "654321")
	assert.EqualError(t, err, "As senhas não coincidem.")

	// USER pedindo -admin cadastra um USER
	out, err := h.run("usuarios", "cadastrar", "-name", "Bia", "-username", "bia", "-password", "123456", "-confirm", "123456", "-admin")
	require.NoError(t, err)
	assert.Contains(t, out, "Usuário cadastrado com sucesso!")

	var roles []string
	require.NoError(t, h.app.DB.DB().Model(&model.UserEntity{}).Where("username = ?", "bia").Pluck("role", &roles).Error)
	assert.Equal(t, []string{"USER"}, roles)

	_, err = h.run("usuarios", "cadastrar", "-name", "Bia", "-username", "bia", "-password", "123456", "-confirm", "123456")
	require.Error(t, err)
	assert.Equal(t, "username já existe", describe(err))
}

func TestCLI_Logout(t *testing.T) {
	h := newHarness(t)
	h.seedUser("ana", model.RoleUser)
	_, err := h.run("login", "-u", "ana", "-p", "segredo")
	require.NoError(t, err)

	out, err := h.run("tema")
	require.NoError(t, err)
	assert.Contains(t, out, "Modo claro")

	h.in.WriteString("s\n")
	out, err = h.run("logout")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "Sessão encerrada."))
	assert.Nil(t, h.cli.store.CurrentUser())
}
