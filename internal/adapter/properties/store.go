// Package properties implements the deposit properties store (C1): a
// small key/value text record per deposit, written atomically via
// temp-file-then-rename so a reader never observes a partial write.
package properties

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/scidataarchive/depositd/internal/domain/deposit"
	"github.com/scidataarchive/depositd/internal/domain/repository"
)

const (
	recordFileName = deposit.RecordFileName

	keyState       = "state"
	keyDescription = "state.description"
	keyMimeType    = "state.mime"
	keyReceivedAt  = "state.received-at"
	keySizeBytes   = "state.size-bytes"
)

// Store is the afero-backed PropertiesStore. Using afero rather than
// raw os calls keeps it swappable for an in-memory filesystem in tests.
type Store struct {
	fs           afero.Fs
	tempRoot     string
	depositsRoot string
}

// New returns a Store rooted at the given staging and storage directories.
func New(fs afero.Fs, tempRoot, depositsRoot string) *Store {
	return &Store{fs: fs, tempRoot: tempRoot, depositsRoot: depositsRoot}
}

func (s *Store) stagingPath(depositID string) string {
	return filepath.Join(s.tempRoot, depositID, recordFileName)
}

func (s *Store) storagePath(depositID string) string {
	return filepath.Join(s.depositsRoot, depositID, recordFileName)
}

func (s *Store) exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

// Set implements repository.PropertiesStore.
func (s *Store) Set(ctx context.Context, depositID string, state deposit.State, message string, preferStaging bool) error {
	staging := s.stagingPath(depositID)
	storage := s.storagePath(depositID)

	var target string
	switch {
	case preferStaging && s.exists(staging):
		target = staging
	case s.exists(storage):
		target = storage
	case s.exists(staging):
		target = staging
	default:
		target = staging
	}

	existing, _ := s.GetState(ctx, depositID)
	rec := deposit.Record{
		State:       state,
		Description: message,
		MimeType:    existing.MimeType,
		ReceivedAt:  existing.ReceivedAt,
		SizeBytes:   existing.SizeBytes,
	}
	data := encodeRecord(rec)
	if err := writeFileAtomic(s.fs, target, data); err != nil {
		return fmt.Errorf("properties: set %s: %w", depositID, err)
	}
	return nil
}

// SetMimeType implements repository.PropertiesStore. It preserves the
// record's current state and message, adding the mime type so a later
// GetState (e.g. by startup recovery) can see how to reassemble the
// staged parts, and stamping ReceivedAt the first time it runs for a
// deposit (subsequent calls, from later parts of the same deposit,
// leave an already-set ReceivedAt untouched).
func (s *Store) SetMimeType(ctx context.Context, depositID string, mimeType deposit.MimeType) error {
	staging := s.stagingPath(depositID)
	storage := s.storagePath(depositID)

	var target string
	switch {
	case s.exists(staging):
		target = staging
	case s.exists(storage):
		target = storage
	default:
		target = staging
	}

	existing, err := s.GetState(ctx, depositID)
	if err != nil {
		existing = deposit.Record{State: deposit.StateDraft}
	}
	existing.MimeType = mimeType
	if existing.ReceivedAt == "" {
		existing.ReceivedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data := encodeRecord(existing)
	if err := writeFileAtomic(s.fs, target, data); err != nil {
		return fmt.Errorf("properties: set mime type %s: %w", depositID, err)
	}
	return nil
}

// AddBytes implements repository.PropertiesStore, accumulating n onto
// the record's running byte count. A deposit with no record yet (its
// very first part) starts the count at n.
func (s *Store) AddBytes(ctx context.Context, depositID string, n int64) error {
	staging := s.stagingPath(depositID)
	storage := s.storagePath(depositID)

	var target string
	switch {
	case s.exists(staging):
		target = staging
	case s.exists(storage):
		target = storage
	default:
		target = staging
	}

	existing, err := s.GetState(ctx, depositID)
	if err != nil {
		existing = deposit.Record{State: deposit.StateDraft}
	}
	existing.SizeBytes += n

	data := encodeRecord(existing)
	if err := writeFileAtomic(s.fs, target, data); err != nil {
		return fmt.Errorf("properties: add bytes %s: %w", depositID, err)
	}
	return nil
}

// GetState implements repository.PropertiesStore.
func (s *Store) GetState(ctx context.Context, depositID string) (deposit.Record, error) {
	for _, path := range []string{s.stagingPath(depositID), s.storagePath(depositID)} {
		if !s.exists(path) {
			continue
		}
		data, err := afero.ReadFile(s.fs, path)
		if err != nil {
			return deposit.Record{}, fmt.Errorf("properties: read %s: %w", depositID, err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return deposit.Record{}, fmt.Errorf("properties: decode %s: %w", depositID, err)
		}
		return rec, nil
	}
	return deposit.Record{}, fmt.Errorf("properties: %s: %w", depositID, repository.ErrNotFound)
}

func encodeRecord(rec deposit.Record) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s\n", keyState, rec.State)
	fmt.Fprintf(&b, "%s=%s\n", keyDescription, escapeValue(rec.Description))
	if rec.MimeType != "" {
		fmt.Fprintf(&b, "%s=%s\n", keyMimeType, rec.MimeType)
	}
	if rec.ReceivedAt != "" {
		fmt.Fprintf(&b, "%s=%s\n", keyReceivedAt, rec.ReceivedAt)
	}
	if rec.SizeBytes != 0 {
		fmt.Fprintf(&b, "%s=%d\n", keySizeBytes, rec.SizeBytes)
	}
	return []byte(b.String())
}

func decodeRecord(data []byte) (deposit.Record, error) {
	rec := deposit.Record{}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	seenState := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			return deposit.Record{}, fmt.Errorf("malformed line %q", line)
		}
		key := strings.TrimSpace(line[:idx])
		value := unescapeValue(strings.TrimSpace(line[idx+1:]))
		switch key {
		case keyState:
			rec.State = deposit.State(value)
			seenState = true
		case keyDescription:
			rec.Description = value
		case keyMimeType:
			rec.MimeType = deposit.MimeType(value)
		case keyReceivedAt:
			rec.ReceivedAt = value
		case keySizeBytes:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return deposit.Record{}, fmt.Errorf("malformed %s value %q: %w", keySizeBytes, value, err)
			}
			rec.SizeBytes = n
		}
	}
	if err := scanner.Err(); err != nil {
		return deposit.Record{}, err
	}
	if !seenState {
		return deposit.Record{}, fmt.Errorf("missing required key %q", keyState)
	}
	if !rec.State.IsValid() {
		return deposit.Record{}, fmt.Errorf("unrecognized state %q", rec.State)
	}
	return rec, nil
}

// escapeValue/unescapeValue protect the one-key-per-line format against
// a free-text message that happens to contain a newline.
func escapeValue(v string) string {
	return strings.ReplaceAll(v, "\n", "\\n")
}

func unescapeValue(v string) string {
	return strings.ReplaceAll(v, "\\n", "\n")
}

// writeFileAtomic writes data to path via temp-file-in-same-dir + rename,
// fsyncing the temp file before the rename so the write survives a crash.
func writeFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmpFile, err := afero.TempFile(fs, dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer fs.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}
