package context

import (
	"context"

	"github.com/dtroode/shopkeeper-auth/internal/model"
)

type contextKey int

const (
	principalKey contextKey = iota
	userKey
)

// Manager keeps the authenticated identity of a request in its context.
// It is shared by the HTTP and gRPC layers.
type Manager struct{}

// NewManager creates a new context manager instance.
//
// Returns a pointer to the newly created Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetPrincipalToContext attaches the principal verified from an access token.
//
// Parameters:
//   - ctx: The request context
//   - principal: The user ID and roles carried by the token
//
// Returns a new context holding the principal.
func (m *Manager) SetPrincipalToContext(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// GetPrincipalFromContext returns the principal attached by SetPrincipalToContext
// or, failing that, the principal of the user attached by SetUserToContext.
func (m *Manager) GetPrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	if p, ok := ctx.Value(principalKey).(model.Principal); ok {
		return p, true
	}
	if u, ok := ctx.Value(userKey).(model.User); ok {
		return u.Principal(), true
	}
	return model.Principal{}, false
}

// SetUserToContext attaches a user resolved by a sign in strategy.
func (m *Manager) SetUserToContext(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey, user.Public())
}

// GetUserFromContext returns the user attached by SetUserToContext.
func (m *Manager) GetUserFromContext(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey).(model.User)
	return u, ok
}
