package ratelimit

import (
	"context"
	"time"
)

// CounterStore atomically increments a window counter and returns the new
// count. The key already encodes the scope key and the window bucket; ttl
// only garbage-collects dead buckets, it does not define window boundaries.
type CounterStore interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
