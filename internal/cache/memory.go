package cache

import (
	"context"
	"sync"
	"time"

	"api-gateway/internal/model"
)

var _ model.TokenCache = (*MemoryCache)(nil)

// MemoryCache is an in-process TokenCache used in tests and single-node
// development runs. Entries expire lazily on lookup.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[int64]memoryEntry
}

type memoryEntry struct {
	pair      model.TokenPair
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[int64]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, accountID int64) (model.TokenPair, model.CacheResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[accountID]
	if !ok {
		return model.TokenPair{}, model.CacheMiss
	}
	if time.Now().After(ent.expiresAt) {
		delete(c.entries, accountID)
		return model.TokenPair{}, model.CacheMiss
	}

	return ent.pair, model.CacheHit
}

func (c *MemoryCache) Put(_ context.Context, accountID int64, pair model.TokenPair, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[accountID] = memoryEntry{pair: pair, expiresAt: time.Now().Add(ttl)}
	return nil
}
