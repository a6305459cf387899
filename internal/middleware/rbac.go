package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// RequireRole lets the request through only when the caller holds one of
// roles. It must run after JWTProtected.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := normalizeRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := allowed[currentRole(c)]; !ok {
			return utils.SendAppError(c, apperror.Forbidden("insufficient permissions"))
		}
		return c.Next()
	}
}

// currentRole prefers the actor bound to the request context and falls back
// to the role stored in locals.
func currentRole(c *fiber.Ctx) string {
	if actor, ok := CurrentActor(c); ok && actor.Role != "" {
		return normalizeRole(actor.Role)
	}
	role, _ := c.Locals("user_role").(string)
	return normalizeRole(role)
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
