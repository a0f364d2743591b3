package properties

import (
	"context"
	"time"

	"github.com/scidataarchive/depositd/internal/domain/deposit"
	"github.com/scidataarchive/depositd/internal/domain/repository"
	"github.com/scidataarchive/depositd/internal/logging"
)

// IndexedStore decorates a PropertiesStore with a best-effort write to
// the deposit index (A4) on every Set. The index is never the source
// of truth and a failure to index is logged, never propagated — losing
// an index update only means a slightly stale `deposit list` until the
// next rebuild.
type IndexedStore struct {
	inner repository.PropertiesStore
	index repository.DepositIndex
	log   logging.Logger
}

// NewIndexedStore wraps inner with index. index may be nil, in which
// case Set behaves exactly like inner.Set.
func NewIndexedStore(inner repository.PropertiesStore, index repository.DepositIndex, log logging.Logger) *IndexedStore {
	if log == nil {
		log = logging.Noop
	}
	return &IndexedStore{inner: inner, index: index, log: log}
}

// Set implements repository.PropertiesStore.
func (s *IndexedStore) Set(ctx context.Context, depositID string, state deposit.State, message string, preferStaging bool) error {
	if err := s.inner.Set(ctx, depositID, state, message, preferStaging); err != nil {
		return err
	}
	if s.index == nil {
		return nil
	}
	receivedAt := ""
	var sizeBytes int64
	if rec, err := s.inner.GetState(ctx, depositID); err == nil {
		receivedAt = rec.ReceivedAt
		sizeBytes = rec.SizeBytes
	}
	if receivedAt == "" {
		receivedAt = time.Now().UTC().Format(time.RFC3339)
	}
	entry := repository.IndexEntry{
		DepositID:  depositID,
		State:      state,
		SizeBytes:  sizeBytes,
		ReceivedAt: receivedAt,
	}
	if err := s.index.Upsert(ctx, entry); err != nil {
		s.log.Warn("properties: could not index %s: %v", depositID, err)
	}
	return nil
}

// SetMimeType implements repository.PropertiesStore by delegating to
// inner; the mime type is not part of the secondary index.
func (s *IndexedStore) SetMimeType(ctx context.Context, depositID string, mimeType deposit.MimeType) error {
	return s.inner.SetMimeType(ctx, depositID, mimeType)
}

// AddBytes implements repository.PropertiesStore by delegating to
// inner. The running total only reaches the index on the next Set
// (e.g. the FINALIZING transition that follows the final part).
func (s *IndexedStore) AddBytes(ctx context.Context, depositID string, n int64) error {
	return s.inner.AddBytes(ctx, depositID, n)
}

// GetState implements repository.PropertiesStore by delegating to inner.
func (s *IndexedStore) GetState(ctx context.Context, depositID string) (deposit.Record, error) {
	return s.inner.GetState(ctx, depositID)
}

var _ repository.PropertiesStore = (*IndexedStore)(nil)
