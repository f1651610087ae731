package auth

import (
	"context"

	"github.com/seams-estates/seams/internal/models"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID   string
	Username string
	Role     models.Role
	TenantID string
}

// Can reports whether the principal holds capability c.
func (p Principal) Can(c Capability) bool {
	return Can(p.Role, c)
}

// Authenticated reports whether p came from a validated token.
func (p Principal) Authenticated() bool {
	return p.UserID != "" && p.Role != models.RoleUnknown
}

// OwnsTenancy reports whether p is the tenant identified by tenantID.
func (p Principal) OwnsTenancy(tenantID string) bool {
	return p.Role == models.RoleTenant && p.TenantID != "" && p.TenantID == tenantID
}

type principalKey struct{}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal, reporting whether one was set.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
