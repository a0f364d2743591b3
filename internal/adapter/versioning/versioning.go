// Package versioning implements the versioning adapter (C5): when
// enabled, it initializes a git repository rooted at a deposit's
// staging directory and, on commitSubmitted, stages every file,
// commits with the configured author identity, and tags the commit
// "state=SUBMITTED".
//
// No git library appears in the example corpus; go-git is the
// standard pure-Go git implementation and is adopted here as an
// out-of-pack ecosystem dependency for this one concern.
package versioning

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	commitMessage = "initial commit"
	tagName       = "state=SUBMITTED"
)

// Adapter is the versioning adapter. A nil-author Adapter with
// enabled=false is a no-op, matching the "disabled by config" case.
type Adapter struct {
	enabled bool
	name    string
	email   string
}

// New returns an Adapter. When enabled is false every method is a no-op
// returning nil, matching the "None" result the orchestrator expects
// when versioning is disabled.
func New(enabled bool, authorName, authorEmail string) *Adapter {
	return &Adapter{enabled: enabled, name: authorName, email: authorEmail}
}

// Enabled reports whether this adapter performs any git operations.
func (a *Adapter) Enabled() bool {
	return a != nil && a.enabled
}

// Init initializes a repository rooted at stagingDir. No-op if disabled.
func (a *Adapter) Init(stagingDir string) error {
	if !a.Enabled() {
		return nil
	}
	if _, err := git.PlainInit(stagingDir, false); err != nil {
		return fmt.Errorf("versioning: init %s: %w", stagingDir, err)
	}
	return nil
}

// CommitSubmitted stages every file under stagingDir, commits with the
// configured author identity, and creates an annotated tag
// "state=SUBMITTED" on the resulting commit. No-op if disabled.
func (a *Adapter) CommitSubmitted(stagingDir string) error {
	if !a.Enabled() {
		return nil
	}

	repo, err := git.PlainOpen(stagingDir)
	if err != nil {
		return fmt.Errorf("versioning: open %s: %w", stagingDir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("versioning: worktree: %w", err)
	}
	if _, err := wt.Add("."); err != nil {
		return fmt.Errorf("versioning: add: %w", err)
	}

	signature := &object.Signature{
		Name:  a.name,
		Email: a.email,
		When:  time.Now(),
	}
	commitHash, err := wt.Commit(commitMessage, &git.CommitOptions{Author: signature})
	if err != nil {
		return fmt.Errorf("versioning: commit: %w", err)
	}

	_, err = repo.CreateTag(tagName, commitHash, &git.CreateTagOptions{
		Tagger:  signature,
		Message: tagName,
	})
	if err != nil {
		return fmt.Errorf("versioning: tag: %w", err)
	}
	return nil
}
