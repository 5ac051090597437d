package auth

import (
	"context"

	"github.com/rpattn/econgate/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// ContextWithIdentity returns a new context carrying the resolved caller.
func ContextWithIdentity(ctx context.Context, id domain.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the resolved caller from the context. A
// missing identity is reported as the viewer role so callers never have to
// branch on absence.
func IdentityFromContext(ctx context.Context) domain.Identity {
	if ctx == nil {
		return domain.Identity{Role: domain.RoleViewer}
	}
	id, ok := ctx.Value(identityKey).(domain.Identity)
	if !ok {
		return domain.Identity{Role: domain.RoleViewer}
	}
	return id
}
