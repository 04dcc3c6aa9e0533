package domain

import "context"

type principalKey struct{}

// ContextPrincipal carries the authenticated identity through request context.
type ContextPrincipal struct {
	UserID string
	Email  string
	Role   UserRole
}

// IsAdmin reports whether the principal holds the admin role.
func (p ContextPrincipal) IsAdmin() bool { return p.Role == RoleAdmin }

// WithPrincipal stores a ContextPrincipal in the context.
func WithPrincipal(ctx context.Context, p ContextPrincipal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the ContextPrincipal from the context.
func PrincipalFromContext(ctx context.Context) (ContextPrincipal, bool) {
	p, ok := ctx.Value(principalKey{}).(ContextPrincipal)
	return p, ok
}

// RequireRole returns an AccessDeniedError unless the principal in ctx holds
// one of roles. A context without a principal belongs to a trusted internal
// caller such as the CLI and is allowed.
func RequireRole(ctx context.Context, action string, roles ...UserRole) error {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return ErrAccessDenied("%s requires role %v", action, roles)
}

// RequireSelfOrAdmin allows the admin role and the principal whose user id is
// userID.
func RequireSelfOrAdmin(ctx context.Context, action, userID string) error {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.IsAdmin() || p.UserID == userID {
		return nil
	}
	return ErrAccessDenied("%s is limited to the user themselves or an admin", action)
}
