package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// LocationHandler exposes location sharing and the nearby filter.
type LocationHandler struct {
	service service.LocationService
	logger  zerolog.Logger
}

// NewLocationHandler constructs the handler.
func NewLocationHandler(service service.LocationService, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{
		service: service,
		logger:  logger.With().Str("component", "location_handler").Logger(),
	}
}

// Register wires location routes.
func (h *LocationHandler) Register(router fiber.Router) {
	router.Post("/", h.share)
	router.Get("/me", h.mine)
	router.Delete("/me", h.stop)
	router.Post("/toggle", h.toggle)
	router.Get("/nearby", h.nearby)
	router.Put("/:id", h.update)
}

func (h *LocationHandler) share(c *fiber.Ctx) error {
	var payload dto.LocationShareRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	location, err := h.service.Share(requestContext(c), currentActor(c), payload)
	if err != nil {
		return respondError(c, h.logger, "share location", err)
	}
	return utils.SendSuccess(c, "location shared", location)
}

func (h *LocationHandler) mine(c *fiber.Ctx) error {
	location, err := h.service.Mine(requestContext(c), currentActor(c))
	if err != nil {
		return respondError(c, h.logger, "get location", err)
	}
	return utils.SendSuccess(c, "location retrieved", location)
}

func (h *LocationHandler) stop(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), currentActor(c)); err != nil {
		return respondError(c, h.logger, "stop sharing", err)
	}
	return utils.SendSuccess(c, "location sharing stopped", nil)
}

func (h *LocationHandler) toggle(c *fiber.Ctx) error {
	var payload dto.LocationToggleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if payload.IsActive == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "is_active is required")
	}
	location, err := h.service.Toggle(requestContext(c), currentActor(c), *payload.IsActive)
	if err != nil {
		return respondError(c, h.logger, "toggle location", err)
	}
	return utils.SendSuccess(c, "location sharing updated", location)
}

func (h *LocationHandler) update(c *fiber.Ctx) error {
	var payload dto.LocationUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	location, err := h.service.Update(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "update location", err)
	}
	return utils.SendSuccess(c, "location updated", location)
}

func (h *LocationHandler) nearby(c *fiber.Ctx) error {
	var radius float64
	if raw := strings.TrimSpace(c.Query("max_distance")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid max_distance")
		}
		radius = parsed
	}
	users, err := h.service.Nearby(requestContext(c), currentActor(c), radius)
	if err != nil {
		return respondError(c, h.logger, "nearby users", err)
	}
	return utils.SendSuccess(c, "nearby users", users)
}
