// Package ratelimit implements the gateway's admission control: declarative
// fixed-window limits evaluated per scope key, with counters in Redis or in
// process memory.
package ratelimit

import (
	"time"

	"api-gateway/internal/model"
)

// Scope selects which callers a window applies to.
type Scope int

const (
	Everyone Scope = iota
	AuthenticatedOnly
	AnonymousOnly
)

// WindowSpec declares one fixed-window limit. A route carries an ordered
// list of specs; a request must pass every applicable one, and the first
// exceeded spec wins.
type WindowSpec struct {
	Limit   int
	Period  time.Duration
	Applies Scope
}

// AppliesTo reports whether the window counts the given identity.
func (w WindowSpec) AppliesTo(identity model.Identity) bool {
	switch w.Applies {
	case AuthenticatedOnly:
		return identity.Authenticated()
	case AnonymousOnly:
		return !identity.Authenticated()
	default:
		return true
	}
}

// Decision is the admission outcome for one request.
type Decision struct {
	Allowed bool
	// RetryAfter is the time until the exceeded window resets. Zero when
	// allowed.
	RetryAfter time.Duration
	// Limit is the limit of the exceeded window. Zero when allowed.
	Limit int
}
