// Package cache implements the token-pair cache that short-circuits repeated
// login calls. Lookups are tri-state: a hit, a miss, or an unavailable
// backend, so callers can tell "no cached pair" apart from "cache is down".
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"api-gateway/internal/logger"
	"api-gateway/internal/model"
)

var _ model.TokenCache = (*RedisCache)(nil)

// tokenKeyPrefix namespaces cached pairs per account.
const tokenKeyPrefix = "jwt_cache:access:"

// RedisCache stores issued token pairs in Redis with a TTL aligned to the
// access-token lifetime.
type RedisCache struct {
	rdb    *redis.Client
	logger *logger.Logger
}

// NewRedisCacheFromClient wraps an existing client. The caller owns the
// connection lifecycle; the same client may also back the rate-limit
// counters. The returned cache is safe for concurrent use.
func NewRedisCacheFromClient(rdb *redis.Client, logger *logger.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, logger: logger}
}

// Get looks up the cached pair for the account. A backend outage degrades to
// CacheUnavailable; a corrupt entry degrades to CacheMiss. Neither is a
// request failure.
func (c *RedisCache) Get(ctx context.Context, accountID int64) (model.TokenPair, model.CacheResult) {
	raw, err := c.rdb.Get(ctx, tokenKey(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return model.TokenPair{}, model.CacheMiss
	}
	if err != nil {
		c.logger.Warn("token cache: lookup failed",
			"account_id", accountID,
			"error", err.Error())
		return model.TokenPair{}, model.CacheUnavailable
	}

	var pair model.TokenPair
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		c.logger.Warn("token cache: corrupt entry, treating as miss",
			"account_id", accountID,
			"error", err.Error())
		return model.TokenPair{}, model.CacheMiss
	}

	return pair, model.CacheHit
}

// Put stores the pair with overwrite semantics. The tokens were already
// validly issued by the time Put runs, so a write failure is logged and
// returned but never fails the caller's request.
func (c *RedisCache) Put(ctx context.Context, accountID int64, pair model.TokenPair, ttl time.Duration) error {
	raw, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("failed to marshal token pair: %w", err)
	}

	if err := c.rdb.Set(ctx, tokenKey(accountID), raw, ttl).Err(); err != nil {
		c.logger.Warn("token cache: write failed",
			"account_id", accountID,
			"error", err.Error())
		return fmt.Errorf("failed to store token pair: %w", err)
	}

	return nil
}

func tokenKey(accountID int64) string {
	return tokenKeyPrefix + strconv.FormatInt(accountID, 10)
}
