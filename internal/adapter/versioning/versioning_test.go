package versioning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Disabled_IsNoOp(t *testing.T) {
	dir := t.TempDir()
	a := New(false, "Depositor", "depositor@example.org")

	require.NoError(t, a.Init(dir))
	require.NoError(t, a.CommitSubmitted(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "disabled adapter must not touch stagingDir")
}

func TestAdapter_Enabled_InitCommitTag(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bagit.txt"), []byte("BagIt-Version: 0.97\n"), 0o644))

	a := New(true, "Depositor", "depositor@example.org")
	require.NoError(t, a.Init(dir))
	require.NoError(t, a.CommitSubmitted(dir))

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)

	ref, err := repo.Tag(tagName)
	require.NoError(t, err)
	assert.NotNil(t, ref)
}
