package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"api-gateway/internal/api/http/response"
	"api-gateway/internal/logger"
	"api-gateway/internal/model"
	"api-gateway/internal/proxy"
)

// Forwarder performs one upstream call and returns the raw response.
type Forwarder interface {
	Forward(ctx context.Context, req proxy.Request) (*http.Response, error)
}

// Proxy dispatches admitted requests to the upstream services.
type Proxy struct {
	forwarder        Forwarder
	contextManager   model.ContextManager
	logger           *logger.Logger
	searchBaseURL    string
	usersBaseURL     string
	merchantsBaseURL string
}

// NewProxy creates a new Proxy handler instance.
func NewProxy(
	forwarder Forwarder,
	contextManager model.ContextManager,
	logger *logger.Logger,
	searchBaseURL, usersBaseURL, merchantsBaseURL string,
) *Proxy {
	return &Proxy{
		forwarder:        forwarder,
		contextManager:   contextManager,
		logger:           logger,
		searchBaseURL:    searchBaseURL,
		usersBaseURL:     usersBaseURL,
		merchantsBaseURL: merchantsBaseURL,
	}
}

// Search relays to the search service. The caller may be anonymous.
func (h *Proxy) Search(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, h.searchBaseURL, subPath(r))
}

// Users relays to the users service. Account mutations must go through
// /accounts/update, so update paths are refused here before any upstream
// call, indistinguishably from an unknown route.
func (h *Proxy) Users(w http.ResponseWriter, r *http.Request) {
	sub := subPath(r)
	if isBlockedUsersPath(sub) {
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "not found")
		return
	}

	h.dispatch(w, r, h.usersBaseURL, sub)
}

// Merchants relays to the merchants service.
func (h *Proxy) Merchants(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, h.merchantsBaseURL, subPath(r))
}

func (h *Proxy) dispatch(w http.ResponseWriter, r *http.Request, baseURL, sub string) {
	identity, ok := h.contextManager.GetIdentity(r.Context())
	if !ok {
		identity = model.Anonymous(r.RemoteAddr)
	}

	resp, err := h.forwarder.Forward(r.Context(), proxy.Request{
		Method:   r.Method,
		BaseURL:  baseURL,
		SubPath:  sub,
		RawQuery: r.URL.RawQuery,
		Body:     r.Body,
		Header:   r.Header,
		Identity: identity,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	if err := proxy.Relay(w, resp); err != nil {
		h.logger.Error("Proxy handler: failed to relay upstream response",
			"path", r.URL.Path,
			"error", err.Error())
	}
}

func subPath(r *http.Request) string {
	return chi.URLParam(r, "*")
}

func isBlockedUsersPath(sub string) bool {
	lower := strings.ToLower(strings.Trim(sub, "/"))
	return lower == "update" || strings.HasPrefix(lower, "update/")
}
