// Package ingress implements the deposit ingress front (C8): the
// synchronous entry point that receives one part, verifies its hash,
// persists state via the properties store, and hands completed
// deposits to the finalization queue. It never performs reassembly,
// extraction, or validation itself — those are C2–C4's job, run later
// by the orchestrator.
package ingress

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/scidataarchive/depositd/internal/domain/deposit"
	pipeline "github.com/scidataarchive/depositd/internal/domain/errors"
	"github.com/scidataarchive/depositd/internal/domain/repository"
	"github.com/scidataarchive/depositd/internal/logging"
)

// Submitter is the finalization queue's contract as consumed by ingress.
type Submitter interface {
	Submit(ctx context.Context, job deposit.Job) error
}

// Part is one incoming deposit part, as delivered by a collaborator
// (e.g. an HTTP handler) after unwrapping its own transport framing.
type Part struct {
	DepositID   string
	Filename    string
	MD5         string // lowercase hex, as advertised by the client
	MimeType    deposit.MimeType
	InProgress  bool
	InputStream io.Reader
}

// Receipt is returned to the caller on successful (possibly
// in-progress) receipt of a part.
type Receipt struct {
	DepositID  string
	InProgress bool
}

// Front is the C8 ingress front.
type Front struct {
	store    repository.PropertiesStore
	queue    Submitter
	tempRoot string
	log      logging.Logger
}

// New builds a Front rooted at tempRoot, the same staging root the
// finalization orchestrator reads from.
func New(store repository.PropertiesStore, queue Submitter, tempRoot string, log logging.Logger) *Front {
	if log == nil {
		log = logging.Noop
	}
	return &Front{store: store, queue: queue, tempRoot: tempRoot, log: log}
}

// Receive implements the per-part sequence from spec §4.8.
func (f *Front) Receive(ctx context.Context, part Part) (Receipt, error) {
	if err := f.checkPrecondition(ctx, part.DepositID); err != nil {
		return Receipt{}, err
	}

	stagingDir := filepath.Join(f.tempRoot, part.DepositID)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return Receipt{}, pipeline.BadRequest("could not create staging directory", err)
	}

	safeName, err := sanitizePartName(part.Filename)
	if err != nil {
		return Receipt{}, pipeline.BadRequest("invalid part filename", err)
	}
	destPath := filepath.Join(stagingDir, safeName)
	sum, written, err := writePart(destPath, part.InputStream)
	if err != nil {
		return Receipt{}, pipeline.BadRequest("could not write deposit part", err)
	}

	if part.MD5 != "" && sum != part.MD5 {
		os.Remove(destPath)
		return Receipt{}, pipeline.ChecksumMismatch(fmt.Sprintf("MD5 mismatch for %s", part.Filename))
	}

	if err := f.store.AddBytes(ctx, part.DepositID, written); err != nil {
		return Receipt{}, pipeline.Failed("could not record deposit size", err)
	}
	if err := f.store.SetMimeType(ctx, part.DepositID, part.MimeType); err != nil {
		return Receipt{}, pipeline.Failed("could not record deposit mime type", err)
	}

	if part.InProgress {
		return Receipt{DepositID: part.DepositID, InProgress: true}, nil
	}

	if err := f.store.Set(ctx, part.DepositID, deposit.StateFinalizing, "awaiting finalization", true); err != nil {
		return Receipt{}, pipeline.Failed("could not record finalizing state", err)
	}

	if err := f.queue.Submit(ctx, deposit.Job{DepositID: part.DepositID, MimeType: part.MimeType}); err != nil {
		return Receipt{}, pipeline.Failed("could not enqueue deposit for finalization", err)
	}

	return Receipt{DepositID: part.DepositID, InProgress: false}, nil
}

// checkPrecondition enforces that continuation requests only land
// against a deposit currently in DRAFT. A first-ever part (no record
// yet) is treated as DRAFT implicitly.
func (f *Front) checkPrecondition(ctx context.Context, depositID string) error {
	rec, err := f.store.GetState(ctx, depositID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return pipeline.Failed("could not read deposit state", err)
	}
	if rec.State != deposit.StateDraft {
		return pipeline.MethodNotAllowed(fmt.Sprintf("deposit %s is not in DRAFT", depositID))
	}
	return nil
}

// writePart streams r into destPath and returns the lowercase hex MD5
// and byte count of the bytes written.
func writePart(destPath string, r io.Reader) (string, int64, error) {
	out, err := os.Create(destPath)
	if err != nil {
		return "", 0, fmt.Errorf("ingress: create %s: %w", destPath, err)
	}
	defer out.Close()

	h := md5.New()
	written, err := io.Copy(out, io.TeeReader(r, h))
	if err != nil {
		return "", 0, fmt.Errorf("ingress: write %s: %w", destPath, err)
	}
	if err := out.Sync(); err != nil {
		return "", 0, fmt.Errorf("ingress: sync %s: %w", destPath, err)
	}
	return hex.EncodeToString(h.Sum(nil)), written, nil
}
