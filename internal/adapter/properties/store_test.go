package properties

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scidataarchive/depositd/internal/domain/deposit"
	"github.com/scidataarchive/depositd/internal/domain/repository"
)

func TestStore_SetAndGetState_CreatesUnderStagingWhenNeitherExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/tmp/staging", "/tmp/storage")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "dep-1", deposit.StateDraft, "received first part", true))

	exists, err := afero.Exists(fs, "/tmp/staging/dep-1/deposit.properties")
	require.NoError(t, err)
	assert.True(t, exists, "record should be created under staging")

	rec, err := s.GetState(ctx, "dep-1")
	require.NoError(t, err)
	assert.Equal(t, deposit.StateDraft, rec.State)
	assert.Equal(t, "received first part", rec.Description)
}

func TestStore_GetState_PrefersStagingOverStorage(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/tmp/staging", "/tmp/storage")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "dep-1", deposit.StateSubmitted, "done", true))
	require.NoError(t, afero.WriteFile(fs, "/tmp/storage/dep-1/deposit.properties",
		[]byte("state=FAILED\nstate.description=stale\n"), 0o644))

	rec, err := s.GetState(ctx, "dep-1")
	require.NoError(t, err)
	assert.Equal(t, deposit.StateSubmitted, rec.State, "staging record must win")
}

func TestStore_Set_PreferStagingFalseUpdatesStorageWhenItExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/tmp/staging", "/tmp/storage")
	ctx := context.Background()

	require.NoError(t, afero.WriteFile(fs, "/tmp/storage/dep-1/deposit.properties",
		[]byte("state=SUBMITTED\nstate.description=old\n"), 0o644))

	require.NoError(t, s.Set(ctx, "dep-1", deposit.StateSubmitted, "updated", false))

	data, err := afero.ReadFile(fs, "/tmp/storage/dep-1/deposit.properties")
	require.NoError(t, err)
	assert.Contains(t, string(data), "updated")
}

func TestStore_GetState_NotFound(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/tmp/staging", "/tmp/storage")

	_, err := s.GetState(context.Background(), "missing")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestStore_Set_NoLeftoverTempFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/tmp/staging", "/tmp/storage")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "dep-1", deposit.StateDraft, "x", true))
	require.NoError(t, s.Set(ctx, "dep-1", deposit.StateFinalizing, "y", true))

	entries, err := afero.ReadDir(fs, "/tmp/staging/dep-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover .tmp-* files")
}

func TestStore_SetMimeType_PersistsAcrossSubsequentSet(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/tmp/staging", "/tmp/storage")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "dep-1", deposit.StateDraft, "awaiting parts", true))
	require.NoError(t, s.SetMimeType(ctx, "dep-1", deposit.MimeChunked))
	require.NoError(t, s.Set(ctx, "dep-1", deposit.StateFinalizing, "awaiting finalization", true))

	rec, err := s.GetState(ctx, "dep-1")
	require.NoError(t, err)
	assert.Equal(t, deposit.MimeChunked, rec.MimeType, "mime type must survive a later Set call")
}

func TestStore_SetMimeType_StampsReceivedAtOnceAndPreservesIt(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/tmp/staging", "/tmp/storage")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "dep-1", deposit.StateDraft, "awaiting parts", true))
	require.NoError(t, s.SetMimeType(ctx, "dep-1", deposit.MimeChunked))

	first, err := s.GetState(ctx, "dep-1")
	require.NoError(t, err)
	require.NotEmpty(t, first.ReceivedAt, "first SetMimeType call must stamp ReceivedAt")

	require.NoError(t, s.Set(ctx, "dep-1", deposit.StateFinalizing, "awaiting finalization", true))
	require.NoError(t, s.SetMimeType(ctx, "dep-1", deposit.MimeChunked))

	second, err := s.GetState(ctx, "dep-1")
	require.NoError(t, err)
	assert.Equal(t, first.ReceivedAt, second.ReceivedAt, "ReceivedAt must not change on later calls")
}

func TestStore_AddBytes_Accumulates(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/tmp/staging", "/tmp/storage")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "dep-1", deposit.StateDraft, "part 1", true))
	require.NoError(t, s.AddBytes(ctx, "dep-1", 100))
	require.NoError(t, s.AddBytes(ctx, "dep-1", 250))

	rec, err := s.GetState(ctx, "dep-1")
	require.NoError(t, err)
	assert.Equal(t, int64(350), rec.SizeBytes)
}

// failRenameFs wraps an afero.Fs and fails every Rename call, letting
// tests assert that a failed atomic write leaves no partial record.
type failRenameFs struct {
	afero.Fs
}

func (f *failRenameFs) Rename(oldname, newname string) error {
	return errors.New("simulated rename failure")
}

func TestStore_Set_RenameFailureLeavesNoPartialRecord(t *testing.T) {
	fs := &failRenameFs{Fs: afero.NewMemMapFs()}
	s := New(fs, "/tmp/staging", "/tmp/storage")

	err := s.Set(context.Background(), "dep-1", deposit.StateDraft, "x", true)
	assert.Error(t, err)

	exists, err := afero.Exists(fs, "/tmp/staging/dep-1/deposit.properties")
	require.NoError(t, err)
	assert.False(t, exists)
}
