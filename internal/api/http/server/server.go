// Package server wraps the standard HTTP server behind the gateway's server
// contract so the security layer stays pluggable.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"api-gateway/internal/model"
)

// HTTPServer serves the gateway mux on a listener supplied by a security
// layer.
type HTTPServer struct {
	server *http.Server
	addr   string
}

// NewHTTPServer creates a new HTTPServer instance for the given handler and
// address.
func NewHTTPServer(handler http.Handler, addr string) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		addr: addr,
	}
}

// Start obtains a listener from the security layer and serves until Stop is
// called. A regular shutdown is not reported as an error.
func (s *HTTPServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *HTTPServer) Address() string {
	return s.addr
}
