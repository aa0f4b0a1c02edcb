// internal/session/memory_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"returns-insights/internal/models"
)

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PutGet_ReturnsDetachedCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	product := "iphone 13"
	s := models.NewSession("sess-1", time.Now().UTC())
	s.Draft = &models.ReturnDraft{ProductName: &product}

	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got.Draft)
	assert.Equal(t, "iphone 13", *got.Draft.ProductName)

	// Mutating the returned copy must not leak into the store.
	*got.Draft.ProductName = "changed"
	again, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "iphone 13", *again.Draft.ProductName)
}

func TestMemoryStore_CompareAndSwap(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := models.NewSession("sess-1", time.Now().UTC())
	require.NoError(t, store.CompareAndSwap(ctx, s))
	assert.Equal(t, int64(1), s.Version)

	// A stale writer holding the old version must fail.
	stale := models.NewSession("sess-1", time.Now().UTC())
	stale.Version = 0
	assert.ErrorIs(t, store.CompareAndSwap(ctx, stale), ErrVersionConflict)

	// The current holder can keep writing.
	require.NoError(t, store.CompareAndSwap(ctx, s))
	assert.Equal(t, int64(2), s.Version)
}

func TestMemoryStore_CompareAndSwap_DeletedSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := models.NewSession("sess-1", time.Now().UTC())
	require.NoError(t, store.CompareAndSwap(ctx, s))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	assert.ErrorIs(t, store.CompareAndSwap(ctx, s), ErrNotFound)
}

func TestMemoryStore_DeleteMissingIsNoop(t *testing.T) {
	store := NewMemoryStore()
	assert.NoError(t, store.Delete(context.Background(), "nope"))
}
