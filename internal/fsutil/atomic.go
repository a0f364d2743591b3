// Package fsutil provides low-level, crash-safe filesystem primitives:
// fsync discipline, atomic rename, and cross-device directory promotion.
// These operate on the real OS filesystem (unlike the afero-backed
// properties store) because cross-device detection needs raw device
// numbers that afero does not expose.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// FsyncFile syncs file contents and metadata to disk.
func FsyncFile(f *os.File) error {
	if f == nil {
		return fmt.Errorf("fsync file: file is nil")
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("fsync file %s: %w", f.Name(), err)
	}
	return nil
}

// FsyncDir syncs directory metadata to disk. Required after rename
// operations to ensure the new directory entry survives a crash.
func FsyncDir(dirPath string) error {
	if dirPath == "" {
		return fmt.Errorf("fsync dir: path is empty")
	}
	dir, err := os.Open(dirPath)
	if err != nil {
		return fmt.Errorf("fsync dir %s: open: %w", dirPath, err)
	}
	defer dir.Close()
	if err := dir.Sync(); err != nil {
		return fmt.Errorf("fsync dir %s: %w", dirPath, err)
	}
	return nil
}

// AtomicRename performs rename(2) within a single filesystem and fsyncs
// the destination's parent directory so the rename survives a crash.
// Returns ErrCrossDevice (wrapped) if src and dst are on different
// filesystems — callers that can tolerate a non-atomic fallback should
// check errors.Is(err, ErrCrossDevice) and use PromoteDir instead.
func AtomicRename(src, dst string) error {
	if src == "" || dst == "" {
		return fmt.Errorf("atomic rename: source and destination must be non-empty")
	}
	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("atomic rename %s -> %s: create parent dir: %w", src, dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		if isCrossDevice(err) {
			return fmt.Errorf("atomic rename %s -> %s: %w: %v", src, dst, ErrCrossDevice, err)
		}
		return fmt.Errorf("atomic rename %s -> %s: %w", src, dst, err)
	}
	if err := FsyncDir(parent); err != nil {
		return fmt.Errorf("atomic rename %s -> %s: rename succeeded but parent fsync failed: %w", src, dst, err)
	}
	return nil
}
