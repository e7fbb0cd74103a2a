package middleware

import (
	"net/http"

	"api-gateway/internal/api/http/response"
	"api-gateway/internal/logger"
	"api-gateway/internal/ratelimit"
)

// Throttle damps per-IP bursts on the credential endpoints with a token
// bucket. It sits in front of bcrypt verification, which is deliberately
// expensive.
type Throttle struct {
	buckets *ratelimit.BucketStore
	logger  *logger.Logger
}

// NewThrottle creates a new Throttle middleware.
func NewThrottle(buckets *ratelimit.BucketStore, logger *logger.Logger) *Throttle {
	return &Throttle{buckets: buckets, logger: logger}
}

// Handle rejects a request when the caller's bucket is empty.
func (m *Throttle) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !m.buckets.Allow("ip:" + ip) {
			m.logger.Info("throttle: credential endpoint burst rejected", "ip", ip)
			w.Header().Set("Retry-After", "1")
			response.Error(w, http.StatusTooManyRequests, response.CodeRateLimited,
				"too many attempts, slow down")
			return
		}

		next.ServeHTTP(w, r)
	})
}
