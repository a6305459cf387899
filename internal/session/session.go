package session

import (
	"context"
	"strings"
)

// Roles understood by the gateways.
const (
	RoleStudent   = "student"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// Actor is the identity on whose behalf a gateway call runs. Denormalized
// author fields on new records are stamped from it.
type Actor struct {
	UserID   string  `json:"user_id"`
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	Role     string  `json:"role"`
	Year     *int    `json:"year,omitempty"`
	Branch   *string `json:"branch,omitempty"`
	Hostel   *string `json:"hostel,omitempty"`
	// Token is the bearer credential forwarded to the remote API.
	Token string `json:"-"`
}

// Authenticated reports whether the actor carries a user identity.
func (a Actor) Authenticated() bool {
	return strings.TrimSpace(a.UserID) != ""
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(a.Role, RoleAdmin)
}

// IsStaff reports whether the actor is an admin or a moderator.
func (a Actor) IsStaff() bool {
	return a.IsAdmin() || strings.EqualFold(a.Role, RoleModerator)
}

// Owns reports whether the actor may mutate a record owned by ownerID.
func (a Actor) Owns(ownerID string) bool {
	return a.IsAdmin() || (a.Authenticated() && a.UserID == ownerID)
}

type actorKey struct{}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext extracts the actor bound to ctx.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// TokenFromContext returns the bearer credential of the actor bound to ctx.
func TokenFromContext(ctx context.Context) string {
	actor, _ := FromContext(ctx)
	return actor.Token
}
