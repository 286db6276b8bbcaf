package model_test

import (
	"testing"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want model.Role
		ok   bool
	}{
		{"ADMIN", model.RoleAdmin, true},
		{"admin", model.RoleAdmin, true},
		{" Admin ", model.RoleAdmin, true},
		{"user", model.RoleUser, true},
		{"USER", model.RoleUser, true},
		{"root", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := model.ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_IsAdmin(t *testing.T) {
	assert.True(t, model.RoleAdmin.IsAdmin())
	assert.True(t, model.Role("admin").IsAdmin())
	assert.False(t, model.RoleUser.IsAdmin())
	assert.False(t, model.Role("superadmin").IsAdmin())

	var nobody *model.User
	assert.False(t, nobody.IsAdmin())
	assert.Equal(t, model.RoleUser, model.RoleOrDefault("qualquer"))
}
