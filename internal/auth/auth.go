package auth

import (
	"context"
	"errors"
)

// RoleAdmin bypasses ownership checks at the authorization gate.
const RoleAdmin = "ADMIN"

// ErrInvalidToken is returned when a token fails validation. The
// middleware downgrades it to an anonymous request rather than failing.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the validated caller established by the authorization gate.
type Identity struct {
	UserID   int64
	Role     string
	Username string
}

// IsAdmin reports whether the caller holds the administrative role.
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// TokenValidator checks a bearer token and resolves the caller's identity.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*Identity, error)
}

type identityKey struct{}

// WithIdentity stores the caller identity in the request context.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// FromContext extracts the caller identity, reporting whether the request is
// authenticated.
func FromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*Identity)
	return identity, ok
}
