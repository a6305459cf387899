package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/plaksha-connect/internal/config"
	"github.com/noah-isme/plaksha-connect/internal/handler"
	"github.com/noah-isme/plaksha-connect/internal/middleware"
	"github.com/noah-isme/plaksha-connect/internal/observability"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

// Dependencies groups router dependencies for registration. Nil handlers
// leave their routes unregistered.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	AnnouncementHandler *handler.AnnouncementHandler
	ChatHandler         *handler.ChatHandler
	IssueHandler        *handler.IssueHandler
	TeamHandler         *handler.TeamHandler
	ChallengeHandler    *handler.ChallengeHandler
	MessHandler         *handler.MessHandler
	LocationHandler     *handler.LocationHandler
	BuildingHandler     *handler.BuildingHandler
	NotificationHandler *handler.NotificationHandler
	UploadHandler       *handler.UploadHandler
	DevHandler          *handler.DevHandler
	JWTMiddleware       fiber.Handler
	OTPLimit            fiber.Handler
	VerifyLimit         fiber.Handler
	ChatLimit           fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Data-Mode", cfg.DataMode)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	staff := middleware.RequireRole(session.RoleAdmin, session.RoleModerator)

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), jwtMiddleware, deps.OTPLimit, deps.VerifyLimit)
		deps.AuthHandler.RegisterProfile(api.Group("/users", jwtMiddleware))
	}
	if deps.AnnouncementHandler != nil {
		deps.AnnouncementHandler.Register(api.Group("/announcements", jwtMiddleware), staff)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.Register(api.Group("/chat", jwtMiddleware), deps.ChatLimit)
	}
	if deps.IssueHandler != nil {
		deps.IssueHandler.Register(api.Group("/issues", jwtMiddleware), staff)
	}
	if deps.TeamHandler != nil {
		deps.TeamHandler.Register(api.Group("/teams", jwtMiddleware))
	}
	if deps.ChallengeHandler != nil {
		deps.ChallengeHandler.Register(api.Group("/challenges", jwtMiddleware))
	}
	if deps.MessHandler != nil {
		deps.MessHandler.Register(api.Group("/mess-reviews", jwtMiddleware))
	}
	if deps.LocationHandler != nil {
		deps.LocationHandler.Register(api.Group("/locations", jwtMiddleware))
	}
	if deps.BuildingHandler != nil {
		deps.BuildingHandler.Register(api.Group("/buildings", jwtMiddleware), staff)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware), staff)
	}
	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(api.Group("/uploads", jwtMiddleware))
	}
	if deps.DevHandler != nil {
		deps.DevHandler.Register(api.Group("/dev", jwtMiddleware, middleware.RequireRole(session.RoleAdmin)))
	}
}
