package index

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/scidataarchive/depositd/internal/domain/repository"
)

// RebuildFromDirs scans tempRoot and depositsRoot for per-deposit
// subdirectories and rebuilds the index from each one's current
// properties record. Used at startup so the index never drifts
// permanently out of sync with the filesystem, which remains the
// source of truth.
func RebuildFromDirs(ctx context.Context, idx *Index, store repository.PropertiesStore, tempRoot, depositsRoot string) error {
	seen := map[string]bool{}
	var entries []repository.IndexEntry

	for _, root := range []string{tempRoot, depositsRoot} {
		dirEntries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for _, e := range dirEntries {
			if !e.IsDir() || seen[e.Name()] {
				continue
			}
			depositID := e.Name()
			rec, err := store.GetState(ctx, depositID)
			if err != nil {
				continue
			}
			seen[depositID] = true
			receivedAt := rec.ReceivedAt
			if receivedAt == "" {
				// Record predates ReceivedAt persistence; the directory's
				// mtime is the closest available approximation.
				if info, statErr := os.Stat(filepath.Join(root, depositID)); statErr == nil {
					receivedAt = info.ModTime().UTC().Format(time.RFC3339)
				} else {
					receivedAt = time.Now().UTC().Format(time.RFC3339)
				}
			}
			sizeBytes := rec.SizeBytes
			if sizeBytes == 0 {
				// Record predates SizeBytes persistence; fall back to
				// summing what's actually on disk.
				sizeBytes = sizeOfDir(filepath.Join(root, depositID))
			}
			entries = append(entries, repository.IndexEntry{
				DepositID:  depositID,
				State:      rec.State,
				SizeBytes:  sizeBytes,
				ReceivedAt: receivedAt,
			})
		}
	}

	return idx.Rebuild(ctx, entries)
}

// sizeOfDir sums the size of every regular file under dir. Used to
// repopulate IndexEntry.SizeBytes on a from-scratch rebuild, when no
// cumulative byte count recorded during ingress is available.
func sizeOfDir(dir string) int64 {
	var total int64
	filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
