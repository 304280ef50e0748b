package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdwb/yawp/storage"
)

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	cred := storage.Credential{
		ID:        []byte("cred-1"),
		PublicKey: []byte{0x30, 0x59},
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Insert(ctx, cred))
	assert.ErrorIs(t, store.Insert(ctx, cred), storage.ErrDuplicateID)

	got, err := store.FindByID(ctx, []byte("cred-1"))
	require.NoError(t, err)
	assert.Equal(t, cred.PublicKey, got.PublicKey)

	_, err = store.FindByID(ctx, []byte("missing"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Mutating a returned credential must not affect the store.
	got.PublicKey[0] = 0xff
	again, err := store.FindByID(ctx, []byte("cred-1"))
	require.NoError(t, err)
	assert.Equal(t, byte(0x30), again.PublicKey[0])
}

func TestNoteStoreOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewNoteStore()

	base := time.Now()
	require.NoError(t, store.Insert(ctx, storage.Note{ID: "old", CreatedAt: base.Add(-time.Hour)}))
	require.NoError(t, store.Insert(ctx, storage.Note{ID: "new", CreatedAt: base}))

	recent, err := store.MostRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "new", recent[0].ID)
}
