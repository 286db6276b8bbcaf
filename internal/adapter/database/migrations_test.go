package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ativix/ativix/internal/adapter/database"
	"github.com/ativix/ativix/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationManager_AppliesPendingFiles(t *testing.T) {
	db := testutils.NewTestDatabase(t)
	dir := t.TempDir()

	sql := "-- índice auxiliar; não usado pelo AutoMigrate\n" +
		"CREATE TABLE IF NOT EXISTS notas (id INTEGER PRIMARY KEY, texto TEXT);\n" +
		"INSERT INTO notas (texto) VALUES ('a;b');\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_notas.sql"), []byte(sql), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leia-me.txt"), []byte("x"), 0o600))

	manager := database.NewMigrationManager(db.DB(), testutils.TestLogger(t), dir)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	require.NoError(t, manager.ApplyMigrations(ctx))
	// Segunda execução não reaplica
	require.NoError(t, manager.ApplyMigrations(ctx))

	var texto string
	require.NoError(t, db.DB().Raw("SELECT texto FROM notas").Scan(&texto).Error)
	assert.Equal(t, "a;b", texto)

	var applied int64
	require.NoError(t, db.DB().Model(&database.Migration{}).Count(&applied).Error)
	assert.Equal(t, int64(1), applied)
}

func TestMigrationManager_MissingDirectory(t *testing.T) {
	db := testutils.NewTestDatabase(t)
	manager := database.NewMigrationManager(db.DB(), testutils.TestLogger(t), filepath.Join(t.TempDir(), "nada"))

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	assert.NoError(t, manager.ApplyMigrations(ctx))

	path, err := manager.CreateMigration("Adicionar Indice")
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "_adicionar_indice.sql")
}
