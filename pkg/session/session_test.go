package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func TestStore_SessionLifecycle(t *testing.T) {
	s := newStore(t)

	assert.Nil(t, s.CurrentUser())
	assert.Empty(t, s.Token())

	err := s.Save(Session{
		Token: "abc",
		User:  User{ID: "1", Username: "maria", Name: "Maria", Role: model.RoleAdmin},
	})
	require.NoError(t, err)

	user := s.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "maria", user.Username)
	assert.True(t, user.IsAdmin())
	assert.Equal(t, "abc", s.Token())

	info, err := os.Stat(filepath.Join(s.Dir(), sessionFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Clear())
	assert.Nil(t, s.CurrentUser())
	require.NoError(t, s.Clear())
}

func TestStore_SaveWithoutToken(t *testing.T) {
	s := newStore(t)
	assert.Error(t, s.Save(Session{User: User{Username: "x"}}))
}

func TestStore_CorruptedSession(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), sessionFile), []byte("{not json"), 0o600))

	assert.Nil(t, s.CurrentUser())
	assert.Empty(t, s.Token())
}

func TestStore_DarkMode(t *testing.T) {
	s := newStore(t)
	assert.False(t, s.DarkMode())

	on, err := s.ToggleDarkMode()
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, s.DarkMode())

	reopened, err := NewStore(s.Dir(), nil)
	require.NoError(t, err)
	assert.True(t, reopened.DarkMode())

	off, err := reopened.ToggleDarkMode()
	require.NoError(t, err)
	assert.False(t, off)
}

func TestUser_IsAdmin(t *testing.T) {
	var nilUser *User
	assert.False(t, nilUser.IsAdmin())
	assert.False(t, (&User{Role: model.RoleUser}).IsAdmin())
	assert.True(t, (&User{Role: "admin"}).IsAdmin())

	u := FromModel(&model.User{ID: "9", Username: "joao", Role: model.RoleUser, Email: "j@x"})
	assert.Equal(t, User{ID: "9", Username: "joao", Role: model.RoleUser}, u)
}
