package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/middleware"
	"github.com/noah-isme/plaksha-connect/internal/session"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseQueryBool(c *fiber.Ctx, key string) (bool, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}

// currentActor returns the caller bound by the JWT middleware, or the zero
// actor, which every service rejects as unauthenticated.
func currentActor(c *fiber.Ctx) session.Actor {
	actor, _ := middleware.CurrentActor(c)
	return actor
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return session.WithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError renders err and logs failures that are not the caller's fault.
func respondError(c *fiber.Ctx, logger zerolog.Logger, op string, err error) error {
	switch apperror.KindOf(err) {
	case apperror.KindServer, apperror.KindNetwork:
		requestLogger(logger, c).Error().Err(err).Str("operation", op).Msg("request failed")
	}
	return utils.SendAppError(c, err)
}
