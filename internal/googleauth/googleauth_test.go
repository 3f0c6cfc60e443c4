package googleauth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	ctx := context.Background()

	opts, err := Options(ctx, "", "", "scope-a")
	require.NoError(t, err)
	assert.Len(t, opts, 1, "only scopes without credentials")

	opts, err = Options(ctx, `{"type":"service_account"}`, "/ignored", "scope-a")
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	file := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600))
	opts, err = Options(ctx, "", file, "scope-a")
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	_, err = Options(ctx, "", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read service account file")
}
