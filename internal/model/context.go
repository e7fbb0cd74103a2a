package model

import "context"

// ContextManager attaches the resolved identity to a request context and
// reads it back, so downstream components do not re-decode tokens.
type ContextManager interface {
	SetIdentity(ctx context.Context, identity Identity) context.Context
	GetIdentity(ctx context.Context) (Identity, bool)
}
