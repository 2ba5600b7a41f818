// Package auth carries the verified caller identity through a request.
package auth

import (
	"context"
	"errors"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleProvider Role = "provider"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleProvider
}

type Identity struct {
	UserID string
	Role   Role
}

var ErrUnauthenticated = errors.New("unauthenticated")

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// Require returns the caller identity or ErrUnauthenticated. Handlers branch
// on the error before calling into the booking service.
func Require(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	return id, nil
}
