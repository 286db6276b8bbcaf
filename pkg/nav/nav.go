// Package nav monta o menu lateral conforme o papel do usuário logado.
package nav

import (
	"github.com/ativix/ativix/internal/domain/model"
)

// Item é uma entrada do menu
type Item struct {
	Label string
	Path  string
}

// ConfirmLogout é a pergunta feita antes de sair
const ConfirmLogout = "Tem certeza que deseja sair?"

var commonItems = []struct{ label, slug string }{
	{"Dashboard", "dashboard"},
	{"Projetos", "projetos"},
	{"Atividades", "atividades"},
}

var adminItems = []Item{
	{Label: "Cadastro Usuário", Path: "/admin/cadastro-usuario"},
	{Label: "Relatórios", Path: "/admin/relatorios"},
}

// Prefix é a raiz das rotas de cada papel
func Prefix(role model.Role) string {
	if role.IsAdmin() {
		return "/admin"
	}
	return "/user"
}

// Menu é função apenas do papel: USER vê as telas comuns em /user, ADMIN vê as
// mesmas em /admin mais cadastro de usuário e relatórios
func Menu(role model.Role) []Item {
	prefix := Prefix(role)

	items := make([]Item, 0, len(commonItems)+len(adminItems))
	for _, it := range commonItems {
		items = append(items, Item{Label: it.label, Path: prefix + "/" + it.slug})
	}
	if role.IsAdmin() {
		items = append(items, adminItems...)
	}
	return items
}

// Find localiza um item pelo path
func Find(role model.Role, path string) (Item, bool) {
	for _, it := range Menu(role) {
		if it.Path == path {
			return it, true
		}
	}
	return Item{}, false
}

// ThemeStore persiste a preferência de tema
type ThemeStore interface {
	ToggleDarkMode() (bool, error)
}

// ThemeLabel é o texto do botão de tema para o estado atual
func ThemeLabel(dark bool) string {
	if dark {
		return "Modo claro"
	}
	return "Modo escuro"
}

// ToggleTheme inverte o tema e devolve o novo rótulo do botão
func ToggleTheme(store ThemeStore) (string, error) {
	dark, err := store.ToggleDarkMode()
	if err != nil {
		return ThemeLabel(!dark), err
	}
	return ThemeLabel(dark), nil
}

// SessionStore é a sessão que o logout limpa
type SessionStore interface {
	Clear() error
}

// Logout pergunta antes de limpar a sessão; recusado, nada muda
func Logout(confirm func(question string) bool, store SessionStore) (bool, error) {
	if confirm != nil && !confirm(ConfirmLogout) {
		return false, nil
	}
	if err := store.Clear(); err != nil {
		return false, err
	}
	return true, nil
}
