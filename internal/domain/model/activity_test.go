package model_test

import (
	"testing"
	"time"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivity_CanTransitionTo(t *testing.T) {
	pending := &model.Activity{Status: model.StatusPending}
	done := &model.Activity{Status: model.StatusDone}

	assert.True(t, pending.CanTransitionTo(model.StatusDone))
	assert.False(t, pending.CanTransitionTo(model.StatusPending))
	assert.False(t, done.CanTransitionTo(model.StatusDone))
	assert.False(t, done.CanTransitionTo(model.StatusPending))
}

func TestParseStatus(t *testing.T) {
	s, ok := model.ParseStatus("Finalizada")
	require.True(t, ok)
	assert.Equal(t, model.StatusDone, s)

	_, ok = model.ParseStatus("cancelada")
	assert.False(t, ok)
}

func TestActivityEntity_ToModel(t *testing.T) {
	now := time.Now()
	entity := &model.ActivityEntity{
		ID:      "a1",
		Title:   "Trocar toner",
		Status:  "pendente",
		Version: 3,
		Comments: []model.CommentEntity{
			{ID: "c1", ActivityID: "a1", Autor: "ana", Texto: "ok", CreatedAt: now},
		},
	}

	a := entity.ToModel()
	assert.Equal(t, model.StatusPending, a.Status)
	assert.Equal(t, 3, a.Version)
	require.Len(t, a.Comentarios, 1)

	c, ok := a.Comment("c1")
	require.True(t, ok)
	assert.Equal(t, "ana", c.Autor)

	_, ok = a.Comment("inexistente")
	assert.False(t, ok)
}

func TestComment_Permissions(t *testing.T) {
	c := &model.Comment{Autor: "ana"}

	assert.True(t, c.CanEdit(&model.User{Username: "ana", Role: model.RoleUser}))
	assert.True(t, c.CanDelete(&model.User{Username: "chefe", Role: model.RoleAdmin}))
	assert.False(t, c.CanEdit(&model.User{Username: "bia", Role: model.RoleUser}))
	assert.False(t, c.CanDelete(nil))
}
