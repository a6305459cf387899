package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/plaksha-connect/internal/session"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// TokenParser verifies session tokens.
type TokenParser interface {
	Parse(raw string) (session.Actor, error)
}

// JWTProtected validates the bearer session token and binds the actor to the
// request context. Streaming routes may pass the token as ?token= because
// browsers cannot set headers on websocket and event-source requests.
func JWTProtected(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		actor, err := tokens.Parse(tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals("user_id", actor.UserID)
		c.Locals("user_role", actor.Role)
		c.SetUserContext(session.WithActor(c.UserContext(), actor))

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authorization := c.Get("Authorization")
	if authorization == "" {
		if token := strings.TrimSpace(c.Query("token")); token != "" {
			return token, true
		}
		return "", false
	}

	const bearer = "Bearer "
	if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return "", true
	}
	return strings.TrimSpace(authorization[len(bearer):]), true
}

// CurrentActor returns the actor bound by JWTProtected.
func CurrentActor(c *fiber.Ctx) (session.Actor, bool) {
	return session.FromContext(c.UserContext())
}
