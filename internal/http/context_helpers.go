package httpx

import (
	"context"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
)

// principalKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type principalKey struct{}

// SetPrincipalInContext returns a child context carrying the authenticated
// principal. A zero principal is not stored.
func SetPrincipalInContext(ctx context.Context, p domainauth.Principal) context.Context {
	if p.UserID == "" {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated principal and whether one
// is present. Handlers behind TokenAuth can rely on presence.
func PrincipalFromContext(ctx context.Context) (domainauth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domainauth.Principal)
	return p, ok
}
