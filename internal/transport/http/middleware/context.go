package middleware

import (
	"context"

	"github.com/medagenda/backend/internal/domain"
)

type contextKey int

const identityKey contextKey = iota

// WithIdentity attaches a verified identity to the context.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns the verified identity attached by the authenticator,
// or nil when the request was not authenticated.
func IdentityFrom(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(identityKey).(*domain.Identity)
	return identity
}
