// Package storage implements the storage promoter (C6): it atomically
// moves a deposit's staging directory into the permanent deposits
// root, falling back to a copy-then-fsync-then-rename sequence when
// the two roots live on different filesystems.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/scidataarchive/depositd/internal/fsutil"
)

// Promoter moves a staging directory to its final storage location.
type Promoter struct {
	depositsRoot string
}

// NewPromoter returns a Promoter rooted at depositsRoot.
func NewPromoter(depositsRoot string) *Promoter {
	return &Promoter{depositsRoot: depositsRoot}
}

// Promote moves stagingDir to <depositsRoot>/<depositID>. The
// destination must not already exist.
func (p *Promoter) Promote(stagingDir, depositID string) (string, error) {
	storageDir := storagePath(p.depositsRoot, depositID)
	if _, err := os.Stat(storageDir); err == nil {
		return "", fmt.Errorf("storage: promote %s: destination already exists", depositID)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("storage: promote %s: stat destination: %w", depositID, err)
	}

	if err := fsutil.PromoteDir(stagingDir, storageDir); err != nil {
		return "", fmt.Errorf("storage: promote %s: %w", depositID, err)
	}
	return storageDir, nil
}

func storagePath(depositsRoot, depositID string) string {
	return filepath.Join(depositsRoot, depositID)
}
