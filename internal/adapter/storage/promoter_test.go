package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoter_Promote_MovesDirectory(t *testing.T) {
	root := t.TempDir()
	staging := filepath.Join(root, "staging")
	require.NoError(t, os.MkdirAll(staging, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "deposit.properties"), []byte("state=SUBMITTED\n"), 0o644))

	depositsRoot := filepath.Join(root, "deposits")
	p := NewPromoter(depositsRoot)

	storageDir, err := p.Promote(staging, "dep-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(depositsRoot, "dep-1"), storageDir)

	_, err = os.Stat(filepath.Join(storageDir, "deposit.properties"))
	require.NoError(t, err)

	_, err = os.Stat(staging)
	assert.True(t, os.IsNotExist(err))
}

func TestPromoter_Promote_FailsIfDestinationExists(t *testing.T) {
	root := t.TempDir()
	staging := filepath.Join(root, "staging")
	require.NoError(t, os.MkdirAll(staging, 0o755))

	depositsRoot := filepath.Join(root, "deposits")
	require.NoError(t, os.MkdirAll(filepath.Join(depositsRoot, "dep-1"), 0o755))

	p := NewPromoter(depositsRoot)
	_, err := p.Promote(staging, "dep-1")
	assert.Error(t, err)
}
