// Package recovery performs the startup scan described in spec §5's
// crash-recovery note: since no state is written past step 5 (the
// SUBMITTED record) until promotion succeeds in step 7, a crash between
// those steps leaves a staging directory whose record says SUBMITTED or
// FINALIZING but whose contents were never promoted. On restart:
//   - a staging directory still FINALIZING has not been confirmed
//     reassembled/validated; it is re-submitted to the finalization
//     queue as a fresh run.
//   - a staging directory already SUBMITTED has already been reassembled,
//     validated, and recorded — only promotion (and, if enabled,
//     versioning's commit) remains, so it is re-promoted directly rather
//     than re-run through reassembly, whose inputs (the raw parts) no
//     longer exist once reassembly has consumed them.
package recovery

import (
	"context"
	"os"
	"path/filepath"

	"github.com/scidataarchive/depositd/internal/domain/deposit"
	"github.com/scidataarchive/depositd/internal/domain/repository"
	"github.com/scidataarchive/depositd/internal/logging"
)

// Submitter is the finalization queue's contract as consumed by recovery.
type Submitter interface {
	Submit(ctx context.Context, job deposit.Job) error
}

// Promoter is C6's contract as consumed by recovery, for re-promoting a
// deposit whose record already reached SUBMITTED before the prior crash.
type Promoter interface {
	Promote(stagingDir, depositID string) (storageDir string, err error)
}

// Versioner is C5's contract, consulted so a re-promoted SUBMITTED
// deposit still receives its commit+tag if it crashed before step 6.
type Versioner interface {
	Enabled() bool
	CommitSubmitted(stagingDir string) error
}

// Run scans tempRoot for staging directories left mid-pipeline and
// resumes each from the point its record indicates.
func Run(ctx context.Context, tempRoot string, store repository.PropertiesStore, submitter Submitter, promoter Promoter, versioner Versioner, log logging.Logger) error {
	if log == nil {
		log = logging.Noop
	}

	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var resubmitted, repromoted, failed int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		depositID := e.Name()
		rec, err := store.GetState(ctx, depositID)
		if err != nil {
			log.Warn("recovery: could not read state for %s: %v", depositID, err)
			continue
		}

		switch rec.State {
		case deposit.StateFinalizing:
			mimeType := rec.MimeType
			if mimeType == "" {
				// Pre-existing record from before mime-type persistence,
				// or a deposit that crashed before its first part ever
				// reached ingress. Single-archive is the common case.
				mimeType = deposit.MimeSingle
			}
			if err := submitter.Submit(ctx, deposit.Job{DepositID: depositID, MimeType: mimeType}); err != nil {
				log.Error("recovery: could not re-enqueue %s: %v", depositID, err)
				failed++
				continue
			}
			resubmitted++

		case deposit.StateSubmitted:
			stagingDir := filepath.Join(tempRoot, depositID)
			if versioner != nil && versioner.Enabled() {
				if err := versioner.CommitSubmitted(stagingDir); err != nil {
					log.Warn("recovery: versioning commit retry failed for %s (may already be committed): %v", depositID, err)
				}
			}
			if _, err := promoter.Promote(stagingDir, depositID); err != nil {
				log.Error("recovery: could not re-promote %s: %v", depositID, err)
				failed++
				continue
			}
			repromoted++

		default:
			// DRAFT: an in-progress upload, not a crashed run. Terminal
			// states (INVALID/FAILED): already resolved, nothing to do.
		}
	}

	if resubmitted > 0 || repromoted > 0 || failed > 0 {
		log.Info("recovery: resumed %d finalizing, re-promoted %d submitted, %d failed to resume", resubmitted, repromoted, failed)
	}
	return nil
}
