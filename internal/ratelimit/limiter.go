package ratelimit

import (
	"context"
	"fmt"
	"time"

	"api-gateway/internal/logger"
	"api-gateway/internal/model"
)

// Limiter evaluates every window bound to a route against the resolved
// identity. Rejections short-circuit before any upstream call is made.
type Limiter struct {
	store  CounterStore
	logger *logger.Logger
	now    func() time.Time
}

func NewLimiter(store CounterStore, logger *logger.Logger) *Limiter {
	return &Limiter{store: store, logger: logger, now: time.Now}
}

// Check increments every applicable window counter and returns the first
// rejection, if any. A counter backend outage fails open: admission is
// allowed and the failure is logged, mirroring the token cache degrade
// policy.
func (l *Limiter) Check(ctx context.Context, identity model.Identity, windows []WindowSpec) Decision {
	now := l.now()
	key := identity.RateLimitKey()

	for _, w := range windows {
		if !w.AppliesTo(identity) {
			continue
		}

		bucket := now.Truncate(w.Period)
		counterKey := fmt.Sprintf("%s:%d:%d", key, int64(w.Period.Seconds()), bucket.Unix())

		count, err := l.store.Incr(ctx, counterKey, w.Period)
		if err != nil {
			l.logger.Error("rate limiter: counter backend failed, admitting request",
				"key", key,
				"error", err.Error())
			continue
		}

		if count > int64(w.Limit) {
			retryAfter := bucket.Add(w.Period).Sub(now)
			l.logger.Info("rate limiter: window exceeded",
				"key", key,
				"limit", w.Limit,
				"period", w.Period.String())
			return Decision{Allowed: false, RetryAfter: retryAfter, Limit: w.Limit}
		}
	}

	return Decision{Allowed: true}
}
