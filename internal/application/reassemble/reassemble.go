// Package reassemble implements the chunk reassembler (C2): it provides
// an MD5 helper for a part file, and at finalization time either
// unpacks a single-part upload in place or sorts and concatenates a
// chunked upload into one archive before unpacking it.
package reassemble

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/scidataarchive/depositd/internal/adapter/archive"
	"github.com/scidataarchive/depositd/internal/domain/deposit"
	pipeline "github.com/scidataarchive/depositd/internal/domain/errors"
)

// HashFile returns the lowercase hex MD5 of the file at path. The
// ingress front does not call it: it computes a part's MD5 while
// streaming the part to disk (ingress.writePart).
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("reassemble: open %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reassemble: hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Run reassembles and extracts the parts found in stagingDir, per
// mimeType. On success, stagingDir contains only the extracted bag
// directory (and the deposit's properties record); all part inputs
// (and, for chunked uploads, the merged archive) have been removed.
func Run(stagingDir string, mimeType deposit.MimeType) error {
	parts, err := listParts(stagingDir)
	if err != nil {
		return pipeline.Failed("could not list staged parts", err)
	}
	if len(parts) == 0 {
		return pipeline.Invalid("no payload", nil)
	}

	switch mimeType {
	case deposit.MimeSingle:
		return runSingle(stagingDir, parts)
	case deposit.MimeChunked:
		return runChunked(stagingDir, parts)
	default:
		return pipeline.Invalid(fmt.Sprintf("unrecognized mime type %q", mimeType), nil)
	}
}

func runSingle(stagingDir string, parts []string) error {
	for _, name := range parts {
		path := filepath.Join(stagingDir, name)
		info, err := os.Lstat(path)
		if err != nil {
			return pipeline.Failed("inconsistent dataset", err)
		}
		if !info.Mode().IsRegular() {
			return pipeline.Failed("inconsistent dataset", fmt.Errorf("%s is not a regular file", name))
		}
		if err := archive.Extract(path, stagingDir); err != nil {
			return pipeline.Failed("archive extraction failed", err)
		}
		if err := os.Remove(path); err != nil {
			return pipeline.Failed("could not remove consumed part", err)
		}
	}
	return nil
}

type seqPart struct {
	name string
	seq  int
}

func runChunked(stagingDir string, parts []string) error {
	seqParts := make([]seqPart, 0, len(parts))
	for _, name := range parts {
		idx := strings.LastIndexByte(name, '.')
		if idx < 0 {
			return pipeline.Invalid("incorrect extension; should be a sequence number", nil)
		}
		suffix := name[idx+1:]
		seq, err := strconv.Atoi(suffix)
		if err != nil || seq < 0 {
			return pipeline.Invalid("incorrect extension; should be a sequence number", err)
		}
		seqParts = append(seqParts, seqPart{name: name, seq: seq})
	}

	sort.Slice(seqParts, func(i, j int) bool { return seqParts[i].seq < seqParts[j].seq })

	mergedPath := filepath.Join(stagingDir, deposit.MergedArchiveName)
	if err := concatenate(stagingDir, seqParts, mergedPath); err != nil {
		return pipeline.Failed("could not reassemble chunked upload", err)
	}

	if err := archive.Extract(mergedPath, stagingDir); err != nil {
		_ = os.Remove(mergedPath)
		return pipeline.Failed("archive extraction failed", err)
	}

	for _, p := range seqParts {
		if err := os.Remove(filepath.Join(stagingDir, p.name)); err != nil {
			return pipeline.Failed("could not remove consumed part", err)
		}
	}
	if err := os.Remove(mergedPath); err != nil {
		return pipeline.Failed("could not remove merged archive", err)
	}
	return nil
}

func concatenate(stagingDir string, parts []seqPart, destPath string) error {
	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	for _, p := range parts {
		in, err := os.Open(filepath.Join(stagingDir, p.name))
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(out, in)
		in.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return out.Sync()
}

// listParts returns the names of regular files directly under
// stagingDir that are deposit parts: everything except the properties
// record and any leftover merged archive from a previous attempt.
func listParts(stagingDir string) ([]string, error) {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if e.Name() == deposit.RecordFileName || e.Name() == deposit.MergedArchiveName {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
