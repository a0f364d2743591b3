// Package finalize implements the finalization orchestrator (C7): the
// per-deposit state machine that drives reassembly, extraction,
// validation, state recording, versioning, and promotion, mapping every
// failure to a terminal state via the properties store.
package finalize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scidataarchive/depositd/internal/adapter/bagit"
	"github.com/scidataarchive/depositd/internal/application/reassemble"
	"github.com/scidataarchive/depositd/internal/domain/deposit"
	pipeline "github.com/scidataarchive/depositd/internal/domain/errors"
	"github.com/scidataarchive/depositd/internal/domain/repository"
	"github.com/scidataarchive/depositd/internal/logging"
)

// Versioner is C5's contract as consumed by the orchestrator.
type Versioner interface {
	Enabled() bool
	Init(stagingDir string) error
	CommitSubmitted(stagingDir string) error
}

// Promoter is C6's contract as consumed by the orchestrator.
type Promoter interface {
	Promote(stagingDir, depositID string) (storageDir string, err error)
}

// Replicator is A5's contract: best-effort, fire-and-forget, and must
// never influence the terminal state already decided by Promoter.
type Replicator interface {
	Replicate(ctx context.Context, depositID, storageDir string)
}

// Orchestrator runs finalization runs (C7).
type Orchestrator struct {
	store      repository.PropertiesStore
	versioning Versioner
	promoter   Promoter
	replicator Replicator
	log        logging.Logger
	tempRoot   string
}

// New builds an Orchestrator. replicator may be nil when replication is disabled.
func New(store repository.PropertiesStore, versioning Versioner, promoter Promoter, replicator Replicator, tempRoot string, log logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.Noop
	}
	return &Orchestrator{
		store:      store,
		versioning: versioning,
		promoter:   promoter,
		replicator: replicator,
		tempRoot:   tempRoot,
		log:        log,
	}
}

// Run executes one finalization run for depositID. It never returns an
// error to the caller: every failure is caught and mapped to a terminal
// state via the properties store, per the orchestrator's job of
// isolating the worker from any single deposit's failure.
func (o *Orchestrator) Run(ctx context.Context, job deposit.Job) {
	depositID := job.DepositID
	stagingDir := filepath.Join(o.tempRoot, depositID)

	if err := o.runSteps(ctx, depositID, stagingDir, job.MimeType); err != nil {
		o.terminal(ctx, depositID, err)
	}
}

func (o *Orchestrator) runSteps(ctx context.Context, depositID, stagingDir string, mimeType deposit.MimeType) error {
	// Step 1: initialize versioning repository, if enabled.
	if o.versioning != nil && o.versioning.Enabled() {
		if err := o.versioning.Init(stagingDir); err != nil {
			return pipeline.Failed("versioning init failed", err)
		}
	}

	// Step 2: reassemble + extract.
	if err := reassemble.Run(stagingDir, mimeType); err != nil {
		return err
	}

	// Step 3: locate the single top-level bag directory.
	bagDir, err := locateBagDir(stagingDir)
	if err != nil {
		return pipeline.Failed(err.Error(), nil)
	}

	// Step 4: validate the bag.
	result, err := bagit.Validate(bagDir)
	if err != nil {
		return pipeline.Failed("bag validation failed", err)
	}
	if !result.Valid {
		return pipeline.Invalid(result.Diagnostic, nil)
	}

	// Step 5: record SUBMITTED in the staging record before the move,
	// so a reader consulting staging-first sees the correct terminal
	// state during the window before promotion.
	if err := o.store.Set(ctx, depositID, deposit.StateSubmitted, "finalization complete", true); err != nil {
		return pipeline.Failed("could not record submitted state", err)
	}

	// Step 6: commit and tag.
	if o.versioning != nil && o.versioning.Enabled() {
		if err := o.versioning.CommitSubmitted(stagingDir); err != nil {
			return pipeline.Failed("versioning commit failed", err)
		}
	}

	// Step 7: promote.
	storageDir, err := o.promoter.Promote(stagingDir, depositID)
	if err != nil {
		return pipeline.Failed("promotion failed", err)
	}

	if o.replicator != nil {
		o.runReplication(ctx, depositID, storageDir)
	}
	return nil
}

// runReplication kicks off A5's upload in its own goroutine so the
// single finalization worker never blocks on the S3 round trip: a
// deposit is already SUBMITTED by the time this runs, and replication
// failure must never change that terminal state. The panic guard
// mirrors queue.Queue.process's — a misbehaving replicator must not
// take the orchestrator down with it.
func (o *Orchestrator) runReplication(ctx context.Context, depositID, storageDir string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				o.log.Error("finalize: replication panicked for %s: %v", depositID, r)
			}
		}()
		o.replicator.Replicate(ctx, depositID, storageDir)
	}()
}

// terminal maps a failed run to its terminal state. The write targets
// the staging record (preferStaging=true): promotion never succeeded,
// so the deposit's record still lives in stagingDir.
func (o *Orchestrator) terminal(ctx context.Context, depositID string, runErr error) {
	kind := pipeline.KindOf(runErr)
	state := deposit.StateFailed
	message := "Unexpected failure in deposit"
	switch kind {
	case pipeline.KindInvalid:
		state = deposit.StateInvalid
		message = runErr.Error()
	case pipeline.KindFailed:
		state = deposit.StateFailed
		message = runErr.Error()
	}

	if err := o.store.Set(ctx, depositID, state, message, true); err != nil {
		o.log.Error("finalize: could not record terminal state for %s: %v (original failure: %v)", depositID, err, runErr)
		return
	}
	o.log.Warn("finalize: deposit %s terminated as %s: %s", depositID, state, message)
}

// locateBagDir finds the single top-level directory under stagingDir
// that holds the extracted bag. The .git directory created by step 1
// when versioning is enabled is not a candidate. Zero or multiple
// candidates is a Failed condition per the orchestrator's exact step
// sequence.
func locateBagDir(stagingDir string) (string, error) {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return "", fmt.Errorf("could not list staging directory: %w", err)
	}
	var candidates []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != ".git" {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) != 1 {
		return "", fmt.Errorf("expected exactly one bag directory under staging, found %d", len(candidates))
	}
	return filepath.Join(stagingDir, candidates[0]), nil
}
