package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"financepro/internal/store"
	"financepro/internal/store/storetest"
)

func TestRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		repo, err := NewRepository(filepath.Join(t.TempDir(), "data", "financepro.db"))
		require.NoError(t, err)
		return repo
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "financepro.db")
	repo, err := NewRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	require.NoError(t, RunMigrations(path))
}
