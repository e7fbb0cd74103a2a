package middleware

import (
	"fmt"
	"math"
	"net/http"

	"api-gateway/internal/api/http/response"
	"api-gateway/internal/logger"
	"api-gateway/internal/model"
	"api-gateway/internal/ratelimit"
)

// RateLimit admits or rejects requests against a set of fixed windows before
// they reach the proxy.
type RateLimit struct {
	limiter        *ratelimit.Limiter
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewRateLimit creates a new RateLimit middleware.
func NewRateLimit(limiter *ratelimit.Limiter, contextManager model.ContextManager, logger *logger.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, contextManager: contextManager, logger: logger}
}

// Limit builds a middleware enforcing the given windows. The identity is
// taken from context; a request that somehow bypassed identity resolution is
// treated as anonymous.
func (m *RateLimit) Limit(windows []ratelimit.WindowSpec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := m.contextManager.GetIdentity(r.Context())
			if !ok {
				identity = model.Anonymous(ClientIP(r))
			}

			decision := m.limiter.Check(r.Context(), identity, windows)
			if !decision.Allowed {
				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				response.Error(w, http.StatusTooManyRequests, response.CodeRateLimited,
					fmt.Sprintf("rate limit of %d requests exceeded, retry in %ds", decision.Limit, retryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
