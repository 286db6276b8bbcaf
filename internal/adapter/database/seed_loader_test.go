package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ativix/ativix/internal/adapter/database"
	"github.com/ativix/ativix/internal/domain/repository"
	"github.com/ativix/ativix/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `[
  {"title": "Configurar VPN", "status": "pendente", "assignedTo": "ana",
   "comentarios": [{"autor": "ana", "texto": "aguardando chave"}]},
  {"title": "Atualizar antivírus", "status": "finalizada", "concluidoPor": "bia"},
  {"title": "", "status": "pendente"},
  {"title": "Status inválido", "status": "arquivada"}
]`

func TestSeedLoader(t *testing.T) {
	db := testutils.NewTestDatabase(t)
	logger := testutils.TestLogger(t)
	loader := database.NewSeedLoader(db, logger)

	ctx, cancel := testutils.ContextWithTimeout(t)
	defer cancel()

	path := filepath.Join(t.TempDir(), "atividades.json")
	require.NoError(t, os.WriteFile(path, []byte(seedJSON), 0o600))

	n, err := loader.LoadActivitiesFromJSON(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Carregar de novo não duplica
	n, err = loader.LoadActivitiesFromJSON(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, n)

	repo := database.NewActivityRepository(db.DB(), logger)
	list, err := repo.List(ctx, repository.ActivityFilter{AssignedTo: "ana"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Comentarios, 1)

	n, err = loader.LoadActivitiesFromJSON(ctx, filepath.Join(t.TempDir(), "ausente.json"))
	require.NoError(t, err)
	assert.Zero(t, n)
}
