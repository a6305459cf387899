package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// DevHandler exposes development tooling.
type DevHandler struct {
	service service.DevService
	logger  zerolog.Logger
}

// NewDevHandler constructs a dev handler.
func NewDevHandler(service service.DevService, logger zerolog.Logger) *DevHandler {
	return &DevHandler{
		service: service,
		logger:  logger.With().Str("component", "dev_handler").Logger(),
	}
}

// Register wires dev routes.
func (h *DevHandler) Register(router fiber.Router) {
	router.Post("/reset", h.reset)
}

func (h *DevHandler) reset(c *fiber.Ctx) error {
	result, err := h.service.Reset(requestContext(c), currentActor(c))
	if err != nil {
		return respondError(c, h.logger, "reset local data", err)
	}
	requestLogger(h.logger, c).Info().Int("cleared", result.Cleared).Msg("local data reset")
	return utils.SendSuccess(c, "local data reset", result)
}
