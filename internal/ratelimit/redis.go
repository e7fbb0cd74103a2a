package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ CounterStore = (*RedisStore)(nil)

// RedisStore counts with Redis INCR, which is atomic across gateway
// instances; concurrent bursts cannot undercount.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "ratelimit"}
}

// Incr increments the bucket counter and pushes its expiry out to ttl. The
// bucket is named by the caller, so refreshing the TTL never extends a
// window; it only keeps the key alive until the bucket is over.
func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, s.prefix+":"+key)
	pipe.Expire(ctx, s.prefix+":"+key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	return incr.Val(), nil
}
