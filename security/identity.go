package security

import (
	"context"
	"strings"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// ParseRole normalises a role claim. Anything unrecognised is a member.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleMember
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Identity is the already-validated caller of a request.
type Identity struct {
	UserID uint `json:"userId"`
	Role   Role `json:"role"`
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
