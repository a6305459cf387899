package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/plaksha-connect/internal/session"
)

// HeaderCorrelationID is echoed on every response and forwarded upstream by
// the remote gateway.
const HeaderCorrelationID = session.CorrelationHeader

const localsCorrelationID = "correlation_id"

// CorrelationID accepts a caller-supplied X-Correlation-ID (or X-Request-ID)
// and otherwise mints one, binding it to the request locals and user context.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := session.CleanCorrelation(c.Get(HeaderCorrelationID))
		if id == "" {
			id = session.CleanCorrelation(c.Get(fiber.HeaderXRequestID))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(localsCorrelationID, id)
		c.Set(HeaderCorrelationID, id)
		c.SetUserContext(session.WithCorrelation(c.UserContext(), id))

		return c.Next()
	}
}

// GetCorrelationID returns the id bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(localsCorrelationID).(string); ok && id != "" {
		return id
	}
	return session.CorrelationFromContext(c.UserContext())
}
