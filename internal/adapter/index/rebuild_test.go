package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scidataarchive/depositd/internal/adapter/properties"
	"github.com/scidataarchive/depositd/internal/domain/deposit"
)

func TestRebuildFromDirs_ScansBothRootsAndPrefersNoDuplicates(t *testing.T) {
	tempRoot := t.TempDir()
	depositsRoot := t.TempDir()
	ctx := context.Background()

	fs := afero.NewOsFs()
	store := properties.New(fs, tempRoot, depositsRoot)

	require.NoError(t, os.MkdirAll(filepath.Join(tempRoot, "dep-draft"), 0o755))
	require.NoError(t, store.Set(ctx, "dep-draft", deposit.StateDraft, "awaiting parts", true))

	require.NoError(t, os.MkdirAll(filepath.Join(depositsRoot, "dep-submitted"), 0o755))
	require.NoError(t, store.Set(ctx, "dep-submitted", deposit.StateSubmitted, "done", false))

	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := Open(path)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, RebuildFromDirs(ctx, idx, store, tempRoot, depositsRoot))

	entries, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]deposit.State{}
	for _, e := range entries {
		byID[e.DepositID] = e.State
	}
	assert.Equal(t, deposit.StateDraft, byID["dep-draft"])
	assert.Equal(t, deposit.StateSubmitted, byID["dep-submitted"])
}
