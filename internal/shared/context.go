package shared

import (
	"context"
	"errors"
)

// ErrNoTenant indicates a call reached the data layer without an authenticated tenant.
var ErrNoTenant = errors.New("shared: tenant identity missing from context")

// Identity carries the authenticated caller attached to every request.
// It is produced exclusively by the HTTP middleware; services and
// repositories never construct one themselves.
type Identity struct {
	TenantID int64
	UserID   int64
	Roles    []string
}

// HasRole reports whether the identity carries the given role.
func (id Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity, failing when absent so
// that no data access can proceed unscoped.
func IdentityFromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok || id.TenantID == 0 {
		return Identity{}, ErrNoTenant
	}
	return id, nil
}
