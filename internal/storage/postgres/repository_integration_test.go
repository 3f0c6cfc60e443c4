//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"financepro/internal/store"
	"financepro/internal/store/storetest"
)

func TestRepositoryIntegration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		repo, err := NewRepository(ctx, url)
		require.NoError(t, err)
		_, err = repo.pool.Exec(ctx, `TRUNCATE transactions, investments, goals`)
		require.NoError(t, err)
		return repo
	})
}
