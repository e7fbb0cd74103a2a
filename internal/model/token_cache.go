package model

import (
	"context"
	"time"
)

// CacheResult distinguishes the outcomes of a token cache lookup. A backend
// outage is reported as CacheUnavailable, never as a request failure, so that
// callers can choose between degrading to fresh issuance and failing the flow.
type CacheResult int

const (
	CacheHit CacheResult = iota
	CacheMiss
	CacheUnavailable
)

// TokenCache stores the last-issued token pair per account. Put has overwrite
// semantics; entries expire with the supplied TTL.
type TokenCache interface {
	Get(ctx context.Context, accountID int64) (TokenPair, CacheResult)
	Put(ctx context.Context, accountID int64, pair TokenPair, ttl time.Duration) error
}
