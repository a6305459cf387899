package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/observability"
)

// Observability records request metrics for every /api route and writes one
// structured log line per request. Websocket and SSE streams are counted but
// not logged: their latency is the connection lifetime.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()
	logger = logger.With().Str("component", "http").Logger()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if !strings.HasPrefix(c.Path(), "/api") {
			return err
		}

		elapsed := time.Since(start)
		route := routeTemplate(c)
		method := c.Method()
		status := c.Response().StatusCode()
		statusLabel := strconv.Itoa(status)

		observability.HTTPRequests().WithLabelValues(method, route, statusLabel).Inc()
		observability.HTTPLatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.HTTPErrors().WithLabelValues(method, route, statusLabel).Inc()
		}
		if isStream(c) {
			return err
		}

		var event *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			event = logger.Error()
		case status >= fiber.StatusBadRequest:
			event = logger.Warn()
		default:
			event = logger.Debug()
		}
		event = event.
			Str("correlation_id", GetCorrelationID(c)).
			Str("domain", domainOf(route)).
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed)
		if actor, ok := CurrentActor(c); ok {
			event = event.Str("user_id", actor.UserID)
		}
		event.Msg("request completed")

		return err
	}
}

func isStream(c *fiber.Ctx) bool {
	path := c.Path()
	return strings.HasSuffix(path, "/ws") || strings.HasSuffix(path, "/stream")
}

func routeTemplate(c *fiber.Ctx) string {
	if c.Route() != nil && c.Route().Path != "" {
		return c.Route().Path
	}
	return c.Path()
}

// domainOf maps /api/mess-reviews/:id to mess-reviews.
func domainOf(route string) string {
	parts := strings.SplitN(strings.TrimPrefix(route, "/api/"), "/", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "api"
	}
	return parts[0]
}
