package service

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/groundwork/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedChunkStore(t *testing.T) {
	next := &mockChunkStore{texts: map[string]string{"c1": "first chunk"}}
	c := NewCachedChunkStore(next, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		text, err := c.GetChunkText(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "first chunk", text)
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, c.Len())

	c.Flush()
	assert.Zero(t, c.Len())
	_, err := c.GetChunkText(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedChunkStore_MissesAreNotCached(t *testing.T) {
	next := &mockChunkStore{texts: map[string]string{}}
	c := NewCachedChunkStore(next, 0)

	_, err := c.GetChunkText(context.Background(), "gone")
	assert.ErrorIs(t, err, store.ErrChunkNotFound)
	_, err = c.GetChunkText(context.Background(), "gone")
	assert.ErrorIs(t, err, store.ErrChunkNotFound)
	assert.Equal(t, 2, next.calls)
	assert.Zero(t, c.Len())
}
