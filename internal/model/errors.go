package model

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateIdentity  = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrTokenMismatch      = errors.New("refresh token superseded")
	ErrEmptyUpdate        = errors.New("no update data provided")
	ErrCacheUnavailable   = errors.New("token cache unavailable")

	// Dispatcher-boundary failures, translated to gateway status codes.
	ErrUpstreamTimeout     = errors.New("upstream service timed out")
	ErrUpstreamUnreachable = errors.New("upstream service unreachable")
)
