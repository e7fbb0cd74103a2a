package ratelimit

import (
	"context"
	"sync"
	"time"
)

var _ CounterStore = (*MemoryStore)(nil)

// MemoryStore is an in-process CounterStore for tests and single-node runs.
// The mutex makes check-then-increment atomic per instance.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryCounter
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryCounter)}
}

func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || now.After(ent.expiresAt) {
		ent = &memoryCounter{expiresAt: now.Add(ttl)}
		s.entries[key] = ent
	}
	ent.count++

	return ent.count, nil
}

// Cleanup drops expired buckets.
func (s *MemoryStore) Cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if now.After(ent.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor cleans expired buckets periodically until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
