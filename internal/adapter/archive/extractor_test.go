package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestExtract_PreservesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bag.zip")
	writeZip(t, archivePath, map[string]string{
		"bag/bagit.txt":           "BagIt-Version: 0.97\n",
		"bag/data/payload.txt":    "hello",
		"bag/manifest-md5.txt":    "abc  data/payload.txt\n",
	})

	dest := filepath.Join(dir, "out")
	require.NoError(t, Extract(archivePath, dest))

	data, err := os.ReadFile(filepath.Join(dest, "bag", "data", "payload.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestExtract_RejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")

	f, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("../../escape.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("pwned"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	dest := filepath.Join(dir, "out")
	err = Extract(archivePath, dest)
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr), "traversal entry must not be written outside dest")
}
