package model

import "strings"

// Role é o papel de autorização de um usuário
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole é o único ponto de interpretação de papéis: ignora caixa e espaços
// e rejeita qualquer valor fora da enumeração
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleUser):
		return RoleUser, true
	case string(RoleAdmin):
		return RoleAdmin, true
	default:
		return "", false
	}
}

// RoleOrDefault interpreta o papel e cai para USER quando inválido ou ausente
func RoleOrDefault(s string) Role {
	if r, ok := ParseRole(s); ok {
		return r
	}
	return RoleUser
}

// IsAdmin indica se o papel concede privilégios administrativos
func (r Role) IsAdmin() bool {
	parsed, ok := ParseRole(string(r))
	return ok && parsed == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
