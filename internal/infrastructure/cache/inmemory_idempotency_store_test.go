package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first, "first mark must win")

	second, err := store.MarkProcessed(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second, "redelivered id must be rejected")

	other, err := store.MarkProcessed(ctx, "evt-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, other)
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "evt-1", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	processed, err := store.IsProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, processed, "expired id is forgotten")

	again, err := store.MarkProcessed(ctx, "evt-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, again, "expired id can be marked again")
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
