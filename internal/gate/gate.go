// Package gate implements profile-based authorization. A Gate resolves the
// current user to a Profile (a named set of resource:action permissions,
// with wildcard support) and answers whether an action is allowed.
package gate

import "context"

// Gate is the central authorization checkpoint.
// U is the user/subject type (uint user IDs here; must be comparable for
// the zero-value check).
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
}

// New creates a gate backed by the given profile resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Authorize checks that user is non-zero and that the user's profile grants
// resource:action. Returns ErrUnauthorized on denial.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return ErrUnauthorized
	}
	if !profile.HasPermission(NewPermission(resourceType, action)) {
		return ErrUnauthorized
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string) bool {
	return g.Authorize(ctx, user, action, resourceType) == nil
}

// IsAdmin reports whether the user's profile carries the superadmin
// wildcard permission.
func (g *Gate[U]) IsAdmin(ctx context.Context, user U) bool {
	var zero U
	if user == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(PermissionSuperAdmin)
}
