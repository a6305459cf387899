package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/session"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// Role groups understood by WithAuth.
const (
	AuthRoleAny     = "any"
	AuthRoleAdmin   = session.RoleAdmin
	AuthRoleStaff   = "staff"
	AuthRoleStudent = session.RoleStudent
)

// AuthOptions configures WithAuth. Any role other than AuthRoleAny implies
// RequireUser.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth guards a single handler, for routes such as event streams that
// are mounted outside a role-guarded group.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := normalizeRole(opts.Role)
	if role == "" {
		role = AuthRoleAny
	}
	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		if requireUser && currentUserID(c) == "" {
			return utils.SendAppError(c, apperror.Unauthorized("authentication required"))
		}
		if !roleSatisfies(role, currentRole(c)) {
			return utils.SendAppError(c, apperror.Forbidden("insufficient permissions"))
		}
		return handler(c)
	}
}

func roleSatisfies(required, current string) bool {
	switch required {
	case AuthRoleAny:
		return true
	case AuthRoleStaff:
		return current == session.RoleAdmin || current == session.RoleModerator
	default:
		return current == required
	}
}

func currentUserID(c *fiber.Ctx) string {
	if actor, ok := CurrentActor(c); ok && actor.UserID != "" {
		return actor.UserID
	}
	userID, _ := c.Locals("user_id").(string)
	return strings.TrimSpace(userID)
}
