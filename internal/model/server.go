package model

import (
	"context"
	"net"
)

// SecurityLayer yields the listener the gateway serves on, plain or TLS.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is the gateway's serving surface: started on a security layer,
// stopped gracefully within a deadline.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
