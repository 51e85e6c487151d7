package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrForbidden the identity's role is not in the allowed set
var ErrForbidden = errors.New("forbidden")

// Role represents a user role
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Identity is the verified caller of a request.
type Identity struct {
	Subject string
	Role    Role
}

type contextKey string

const identityContextKey contextKey = "catalog.identity"

// WithIdentity attaches a verified identity to ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the identity attached by WithIdentity
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityContextKey)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// RoleSet is a fixed set of roles permitted to perform an operation.
type RoleSet map[Role]struct{}

// NewRoleSet creates a role set
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether role is in the set
func (s RoleSet) Contains(role Role) bool {
	_, ok := s[role]
	return ok
}

func (s RoleSet) String() string {
	names := make([]string, 0, len(s))
	for r := range s {
		names = append(names, string(r))
	}
	sort.Strings(names)
	return "[" + strings.Join(names, ",") + "]"
}

// Authorize permits identities whose role is in allowed.
func Authorize(id Identity, allowed RoleSet) error {
	if !allowed.Contains(id.Role) {
		return fmt.Errorf("%w: role %q not in %s", ErrForbidden, id.Role, allowed)
	}
	return nil
}
