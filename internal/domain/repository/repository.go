// Package repository declares the persistence-facing interfaces the
// domain depends on. Concrete adapters live under internal/adapter;
// this package only names the contracts so application code can accept
// interfaces without importing infrastructure.
package repository

import (
	"context"
	"errors"

	"github.com/scidataarchive/depositd/internal/domain/deposit"
)

// ErrNotFound is returned by PropertiesStore.GetState when neither the
// staging nor the storage record exists for a deposit ID.
var ErrNotFound = errors.New("deposit record not found")

// PropertiesStore persists the per-deposit state + message record (C1).
// Every call hits disk; there is no in-memory cache, so reads always
// reflect the most recent durable write.
type PropertiesStore interface {
	// Set writes the state/message pair. If preferStaging is true and a
	// staging record exists, it is updated; otherwise the storage record
	// is updated if it exists; if neither exists, the record is created
	// under staging.
	Set(ctx context.Context, depositID string, state deposit.State, message string, preferStaging bool) error

	// SetMimeType records the archive shape advertised by the ingress
	// collaborator, so a crash-recovery resume of a FINALIZING deposit
	// knows whether to reassemble it as a single archive or chunked
	// parts without having to re-derive it from the staging directory.
	// It also stamps the record's ReceivedAt the first time it is
	// called for a given deposit (the arrival of its first part) and
	// leaves it untouched on every later call, so ReceivedAt always
	// reflects the deposit's actual receipt time rather than whatever
	// moment a later state transition happened to run at.
	SetMimeType(ctx context.Context, depositID string, mimeType deposit.MimeType) error

	// AddBytes accumulates n onto the record's running SizeBytes total,
	// called once per part as ingress finishes writing it to staging.
	AddBytes(ctx context.Context, depositID string, n int64) error

	// GetState consults the staging record first, then storage. Returns
	// ErrNotFound if neither location holds a record.
	GetState(ctx context.Context, depositID string) (deposit.Record, error)
}

// IndexEntry is a denormalized, queryable snapshot of a deposit's last
// known state, kept by the secondary index (A4). It is never the
// authoritative source of truth — PropertiesStore is — and can always
// be rebuilt from a filesystem scan.
type IndexEntry struct {
	DepositID  string
	State      deposit.State
	SizeBytes  int64
	ReceivedAt string // RFC 3339; stored as text to keep the schema driver-agnostic
}

// DepositIndex is the rebuildable secondary index (A4) used to answer
// "list deposits" queries without scanning the filesystem on every
// request. It is advisory: any inconsistency with PropertiesStore is
// resolved in PropertiesStore's favor and repaired by Rebuild.
type DepositIndex interface {
	Upsert(ctx context.Context, entry IndexEntry) error
	List(ctx context.Context) ([]IndexEntry, error)
	Rebuild(ctx context.Context, entries []IndexEntry) error
	Close() error
}
