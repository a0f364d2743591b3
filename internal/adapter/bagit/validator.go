// Package bagit implements the bag validator adapter (C4): it checks a
// directory against the BagIt v0.97 manifest convention — every file
// declared in a manifest exists and matches its declared checksum, and
// the required tag files are present.
//
// No BagIt library appears in the example corpus (or the wider
// ecosystem in a form suitable for this project), so this adapter is
// built directly on stdlib hashing and file I/O.
package bagit

import (
	"bufio"
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	bagitDeclFile = "bagit.txt"
	bagInfoFile   = "bag-info.txt"
)

var manifestFiles = []struct {
	name    string
	newHash func() hash.Hash
}{
	{"manifest-md5.txt", md5.New},
	{"manifest-sha256.txt", sha256.New},
}

// Result carries the outcome of validating one bag directory.
type Result struct {
	Valid      bool
	Diagnostic string
}

// Validate checks bagDir against the BagIt v0.97 manifest convention.
// A manifest mismatch or missing required file yields Result{Valid:
// false, Diagnostic: ...}; an I/O failure unrelated to the bag's
// content (can't read the directory at all) is returned as an error,
// since that is an operator-side fault rather than a client mistake.
func Validate(bagDir string) (Result, error) {
	if _, err := os.Stat(filepath.Join(bagDir, bagitDeclFile)); err != nil {
		if os.IsNotExist(err) {
			return Result{Valid: false, Diagnostic: fmt.Sprintf("missing required tag file %s", bagitDeclFile)}, nil
		}
		return Result{}, fmt.Errorf("bagit: stat %s: %w", bagitDeclFile, err)
	}
	if _, err := os.Stat(filepath.Join(bagDir, bagInfoFile)); err != nil {
		if os.IsNotExist(err) {
			return Result{Valid: false, Diagnostic: fmt.Sprintf("missing required tag file %s", bagInfoFile)}, nil
		}
		return Result{}, fmt.Errorf("bagit: stat %s: %w", bagInfoFile, err)
	}

	foundManifest := false
	for _, m := range manifestFiles {
		manifestPath := filepath.Join(bagDir, m.name)
		entries, err := readManifest(manifestPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Result{}, fmt.Errorf("bagit: read %s: %w", m.name, err)
		}
		foundManifest = true

		for _, entry := range entries {
			filePath := filepath.Join(bagDir, entry.path)
			sum, err := hashFile(filePath, m.newHash)
			if err != nil {
				if os.IsNotExist(err) {
					return Result{Valid: false, Diagnostic: fmt.Sprintf(
						"manifest declares %s but it is missing from the bag", entry.path)}, nil
				}
				return Result{}, fmt.Errorf("bagit: hash %s: %w", entry.path, err)
			}
			if sum != entry.checksum {
				return Result{Valid: false, Diagnostic: fmt.Sprintf(
					"checksum mismatch for %s: manifest says %s, computed %s", entry.path, entry.checksum, sum)}, nil
			}
		}
	}

	if !foundManifest {
		return Result{Valid: false, Diagnostic: "no manifest file present (manifest-md5.txt or manifest-sha256.txt)"}, nil
	}

	return Result{Valid: true}, nil
}

type manifestEntry struct {
	checksum string
	path     string
}

// readManifest parses "<checksum>  <relative-path>" lines, the format
// BagIt manifests use (two spaces is conventional; any whitespace run
// is accepted here).
func readManifest(path string) ([]manifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []manifestEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed manifest line: %q", line)
		}
		entries = append(entries, manifestEntry{
			checksum: strings.ToLower(fields[0]),
			path:     strings.Join(fields[1:], " "),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func hashFile(path string, newHash func() hash.Hash) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
