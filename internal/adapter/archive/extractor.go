// Package archive implements the archive extractor adapter (C3): it
// unpacks a ZIP-family archive into a destination directory, preserving
// relative paths and rejecting entries that would escape the
// destination (path traversal / "zip slip").
//
// No third-party ZIP library appears anywhere in the example corpus, so
// this adapter is built directly on archive/zip; everything else in the
// pipeline keeps using the corpus's ecosystem libraries.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extract unpacks the ZIP archive at archivePath into destDir, creating
// destDir if needed. Returns an error wrapping the underlying cause for
// any entry that cannot be written or that attempts to escape destDir.
func Extract(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", archivePath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("archive: create dest dir %s: %w", destDir, err)
	}

	for _, entry := range r.File {
		if err := extractEntry(entry, destDir); err != nil {
			return fmt.Errorf("archive: entry %s: %w", entry.Name, err)
		}
	}
	return nil
}

func extractEntry(entry *zip.File, destDir string) error {
	target, err := safeJoin(destDir, entry.Name)
	if err != nil {
		return err
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open zip entry: %w", err)
	}
	defer src.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, entry.Mode().Perm()|0o600)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// safeJoin joins destDir with name, rejecting any entry whose cleaned
// path would resolve outside destDir — the standard "zip slip" defense.
func safeJoin(destDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(destDir, name))
	destClean := filepath.Clean(destDir)
	if cleaned != destClean && !strings.HasPrefix(cleaned, destClean+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal path escapes destination: %q", name)
	}
	return cleaned, nil
}
