// Package response holds the JSON encoding helpers shared by handlers and
// middleware.
package response

import (
	"encoding/json"
	"net/http"
)

// Error codes returned to clients. These are part of the API contract and
// must stay stable.
const (
	CodeValidation         = "validation_error"
	CodeDuplicateIdentity  = "duplicate_identity"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthenticated    = "unauthenticated"
	CodeNotFound           = "not_found"
	CodeRateLimited        = "rate_limited"
	CodeCacheUnavailable   = "token_cache_unavailable"
	CodeUpstreamTimeout    = "upstream_timeout"
	CodeUpstreamDown       = "upstream_unreachable"
	CodeInternal           = "internal_error"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// JSON writes v as a JSON body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a machine-readable error body. Headers already set on w, such
// as Retry-After or WWW-Authenticate, are preserved.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// Unauthenticated writes a 401 with the bearer challenge header.
func Unauthenticated(w http.ResponseWriter, code, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	Error(w, http.StatusUnauthorized, code, message)
}
