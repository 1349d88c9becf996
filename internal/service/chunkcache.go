package service

import (
	"context"
	"time"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	gocache "github.com/patrickmn/go-cache"
)

const DefaultChunkCacheTTL = 10 * time.Minute

// CachedChunkStore memoizes chunk text. Chunks are immutable once indexed, so
// the TTL only bounds memory after a reindex.
type CachedChunkStore struct {
	next  domain.ChunkStore
	cache *gocache.Cache
}

func NewCachedChunkStore(next domain.ChunkStore, ttl time.Duration) *CachedChunkStore {
	if ttl <= 0 {
		ttl = DefaultChunkCacheTTL
	}
	return &CachedChunkStore{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedChunkStore) GetChunkText(ctx context.Context, chunkID string) (string, error) {
	if v, ok := c.cache.Get(chunkID); ok {
		return v.(string), nil
	}
	text, err := c.next.GetChunkText(ctx, chunkID)
	if err != nil {
		return "", err
	}
	c.cache.SetDefault(chunkID, text)
	return text, nil
}

// Flush drops every cached chunk.
func (c *CachedChunkStore) Flush() {
	c.cache.Flush()
}

func (c *CachedChunkStore) Len() int {
	return c.cache.ItemCount()
}
