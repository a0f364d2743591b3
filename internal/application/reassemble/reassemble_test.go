package reassemble

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	stderrors "errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scidataarchive/depositd/internal/domain/deposit"
	pipeline "github.com/scidataarchive/depositd/internal/domain/errors"
)

func writeZipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tmp.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestRun_EmptyPartsIsInvalid(t *testing.T) {
	dir := t.TempDir()
	err := Run(dir, deposit.MimeSingle)
	require.Error(t, err)
	assert.Equal(t, pipeline.KindInvalid, pipeline.KindOf(err))
}

func TestRun_Single_ExtractsAndRemovesPart(t *testing.T) {
	dir := t.TempDir()
	data := writeZipBytes(t, map[string]string{"bag/bagit.txt": "BagIt-Version: 0.97\n"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "upload.zip"), data, 0o644))

	require.NoError(t, Run(dir, deposit.MimeSingle))

	_, err := os.Stat(filepath.Join(dir, "bag", "bagit.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "upload.zip"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_Chunked_SortsConcatenatesAndExtracts(t *testing.T) {
	dir := t.TempDir()
	data := writeZipBytes(t, map[string]string{"bag/bagit.txt": "BagIt-Version: 0.97\n"})

	// split the archive into 3 chunks, written out of order
	third := len(data) / 3
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg.2"), data[third:2*third], 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg.1"), data[:third], 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg.3"), data[2*third:], 0o644))

	require.NoError(t, Run(dir, deposit.MimeChunked))

	_, err := os.Stat(filepath.Join(dir, "bag", "bagit.txt"))
	require.NoError(t, err)
	for _, name := range []string{"pkg.1", "pkg.2", "pkg.3", deposit.MergedArchiveName} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), "%s should have been removed", name)
	}
}

func TestRun_Chunked_NonNumericSuffixIsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg.final"), []byte("x"), 0o644))

	err := Run(dir, deposit.MimeChunked)
	require.Error(t, err)
	assert.Equal(t, pipeline.KindInvalid, pipeline.KindOf(err))
}

func TestRun_Chunked_NoDotIsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkgwithnodot"), []byte("x"), 0o644))

	err := Run(dir, deposit.MimeChunked)
	require.Error(t, err)
	assert.Equal(t, pipeline.KindInvalid, pipeline.KindOf(err))
}

func TestRun_Chunked_GapsInSequenceStillConcatenateInOrder(t *testing.T) {
	dir := t.TempDir()
	data := writeZipBytes(t, map[string]string{"bag/bagit.txt": "BagIt-Version: 0.97\n"})
	half := len(data) / 2
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg.10"), data[:half], 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg.99"), data[half:], 0o644))

	require.NoError(t, Run(dir, deposit.MimeChunked))

	_, err := os.Stat(filepath.Join(dir, "bag", "bagit.txt"))
	require.NoError(t, err)
}

func TestHashFile_ReturnsLowercaseHex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	sum, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)
	assert.False(t, stderrors.Is(err, pipeline.ErrFailed))
}
