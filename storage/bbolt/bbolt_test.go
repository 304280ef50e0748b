package bbolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdwb/yawp/storage"
)

func openTestDB(t *testing.T) *CredentialStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := NewCredentialStore(db)
	require.NoError(t, err)
	return store
}

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = store.FindByID(ctx, []byte("missing"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	cred := storage.Credential{
		ID:        []byte("cred-1"),
		PublicKey: []byte{0x30, 0x59, 0x01},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Insert(ctx, cred))

	err = store.Insert(ctx, cred)
	assert.ErrorIs(t, err, storage.ErrDuplicateID)

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.FindByID(ctx, []byte("cred-1"))
	require.NoError(t, err)
	assert.Equal(t, cred.ID, got.ID)
	assert.Equal(t, cred.PublicKey, got.PublicKey)
	assert.True(t, cred.CreatedAt.Equal(got.CreatedAt))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, cred.ID, all[0].ID)
}

func TestNoteStore(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := NewNoteStore(db)
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Second)
	notes := []storage.Note{
		{ID: "a", Body: "oldest", CreatedAt: base.Add(-2 * time.Hour)},
		{ID: "b", Body: "middle", CreatedAt: base.Add(-1 * time.Hour)},
		{ID: "c", Body: "newest", CreatedAt: base},
	}
	for _, note := range notes {
		require.NoError(t, store.Insert(ctx, note))
	}

	err = store.Insert(ctx, notes[0])
	assert.ErrorIs(t, err, storage.ErrDuplicateID)

	got, err := store.ByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "middle", got.Body)

	_, err = store.ByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	recent, err := store.MostRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].ID)
	assert.Equal(t, "b", recent[1].ID)

	all, err := store.MostRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
