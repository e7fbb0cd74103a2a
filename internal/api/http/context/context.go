// Package context stores the resolved caller identity in request context.
package context

import (
	"context"

	"api-gateway/internal/model"
)

type contextKey string

const identityKey contextKey = "identity"

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) SetIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func (m *Manager) GetIdentity(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}
