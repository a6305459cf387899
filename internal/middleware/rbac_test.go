package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/plaksha-connect/internal/session"
)

func actorApp(actor *session.Actor, localsRole string, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if actor != nil {
			c.SetUserContext(session.WithActor(c.UserContext(), *actor))
		}
		if localsRole != "" {
			c.Locals("user_role", localsRole)
		}
		return c.Next()
	})
	app.Use(guard)
	app.Get("/dev", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRoleAllowsAuthorizedRoles(t *testing.T) {
	moderator := session.Actor{UserID: "mod-1", Role: session.RoleModerator}
	app := actorApp(&moderator, "", RequireRole("Admin", " moderator "))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dev", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	app = actorApp(nil, "admin", RequireRole("admin"))
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/dev", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoleRejectsUnauthorizedRoles(t *testing.T) {
	student := session.Actor{UserID: "user-1", Role: session.RoleStudent}
	// The bound actor wins over a stale locals value.
	app := actorApp(&student, "admin", RequireRole("admin", "moderator"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dev", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Kind    string `json:"kind"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.Equal(t, "forbidden", body.Kind)
}

func TestRateLimitKeysByActorThenIP(t *testing.T) {
	alice := session.Actor{UserID: "user-1", Role: session.RoleStudent}
	app := actorApp(&alice, "", RateLimit("chat", 2, time.Minute))

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dev", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dev", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

	anonymous := actorApp(nil, "", RateLimit("otp", 1, time.Minute))
	resp, err = anonymous.Test(httptest.NewRequest(http.MethodGet, "/dev", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, err = anonymous.Test(httptest.NewRequest(http.MethodGet, "/dev", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestCorrelationIDEchoesOrMints(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(session.CorrelationFromContext(c.UserContext()) + "|" + GetCorrelationID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "  req-7 ")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "req-7", resp.Header.Get(HeaderCorrelationID))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "req-7|req-7", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Len(t, resp.Header.Get(HeaderCorrelationID), 36)
}
