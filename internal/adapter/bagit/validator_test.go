package bagit

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBag(t *testing.T, payload string, omitManifestEntry bool, corruptChecksum bool) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bagit.txt"), []byte("BagIt-Version: 0.97\nTag-File-Character-Encoding: UTF-8\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bag-info.txt"), []byte("Bagging-Date: 2026-07-30\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "payload.txt"), []byte(payload), 0o644))

	sum := fmt.Sprintf("%x", md5.Sum([]byte(payload)))
	if corruptChecksum {
		sum = "0000000000000000000000000000000"
	}

	manifest := ""
	if !omitManifestEntry {
		manifest = fmt.Sprintf("%s  data/payload.txt\n", sum)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest-md5.txt"), []byte(manifest), 0o644))
	return dir
}

func TestValidate_ValidBag(t *testing.T) {
	dir := writeBag(t, "hello world", false, false)
	result, err := Validate(dir)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidate_ChecksumMismatch(t *testing.T) {
	dir := writeBag(t, "hello world", false, true)
	result, err := Validate(dir)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Diagnostic, "checksum mismatch")
}

func TestValidate_MissingDeclaredFile(t *testing.T) {
	dir := writeBag(t, "hello world", false, false)
	require.NoError(t, os.Remove(filepath.Join(dir, "data", "payload.txt")))

	result, err := Validate(dir)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Diagnostic, "missing from the bag")
}

func TestValidate_MissingBagitDeclaration(t *testing.T) {
	dir := writeBag(t, "hello world", false, false)
	require.NoError(t, os.Remove(filepath.Join(dir, "bagit.txt")))

	result, err := Validate(dir)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Diagnostic, "bagit.txt")
}

func TestValidate_NoManifestPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bagit.txt"), []byte("BagIt-Version: 0.97\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bag-info.txt"), []byte(""), 0o644))

	result, err := Validate(dir)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Diagnostic, "no manifest")
}
