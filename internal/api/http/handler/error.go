package handler

import (
	"errors"
	"net/http"

	"api-gateway/internal/api/http/response"
	"api-gateway/internal/model"
)

// handleError writes the default status for a service error. Routes that map
// a sentinel differently, such as duplicate identity on register, intercept
// it before falling through here.
func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		response.Unauthenticated(w, response.CodeInvalidCredentials, "incorrect username or password")
	case errors.Is(err, model.ErrUnauthenticated), errors.Is(err, model.ErrTokenMismatch):
		response.Unauthenticated(w, response.CodeUnauthenticated, "invalid or expired token")
	case errors.Is(err, model.ErrDuplicateIdentity):
		response.Error(w, http.StatusConflict, response.CodeDuplicateIdentity, "username or email already registered")
	case errors.Is(err, model.ErrEmptyUpdate):
		response.Error(w, http.StatusBadRequest, response.CodeValidation, "no update data provided")
	case errors.Is(err, model.ErrNotFound):
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "not found")
	case errors.Is(err, model.ErrCacheUnavailable):
		response.Error(w, http.StatusServiceUnavailable, response.CodeCacheUnavailable, "authentication support services unavailable")
	case errors.Is(err, model.ErrUpstreamTimeout):
		response.Error(w, http.StatusGatewayTimeout, response.CodeUpstreamTimeout, "upstream service timed out")
	case errors.Is(err, model.ErrUpstreamUnreachable):
		response.Error(w, http.StatusServiceUnavailable, response.CodeUpstreamDown, "upstream service unavailable")
	default:
		response.Error(w, http.StatusInternalServerError, response.CodeInternal, "internal server error")
	}
}
