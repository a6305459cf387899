package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/geo"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// BuildingHandler serves the campus map.
type BuildingHandler struct {
	service service.BuildingService
	logger  zerolog.Logger
}

// NewBuildingHandler constructs the handler.
func NewBuildingHandler(service service.BuildingService, logger zerolog.Logger) *BuildingHandler {
	return &BuildingHandler{
		service: service,
		logger:  logger.With().Str("component", "building_handler").Logger(),
	}
}

// Register wires building routes. staff guards the write routes.
func (h *BuildingHandler) Register(router fiber.Router, staff fiber.Handler) {
	if staff == nil {
		staff = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Get("/", h.list)
	router.Post("/", staff, h.create)
	router.Get("/here", h.here)
	router.Get("/nearest/:latitude/:longitude", h.nearest)
	router.Get("/radius/:latitude/:longitude", h.radius)
	router.Get("/:id", h.get)
	router.Put("/:id", staff, h.update)
	router.Delete("/:id", staff, h.delete)
}

func (h *BuildingHandler) list(c *fiber.Ctx) error {
	filter := repository.BuildingFilter{Type: c.Query("type"), Search: c.Query("search")}
	items, err := h.service.List(requestContext(c), currentActor(c), filter)
	if err != nil {
		return respondError(c, h.logger, "list buildings", err)
	}
	return utils.SendSuccess(c, "buildings retrieved", items)
}

func (h *BuildingHandler) get(c *fiber.Ctx) error {
	item, err := h.service.Get(requestContext(c), currentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "get building", err)
	}
	return utils.SendSuccess(c, "building retrieved", item)
}

func (h *BuildingHandler) create(c *fiber.Ctx) error {
	var payload dto.BuildingCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	item, err := h.service.Create(requestContext(c), currentActor(c), payload)
	if err != nil {
		return respondError(c, h.logger, "create building", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "building created", item)
}

func (h *BuildingHandler) update(c *fiber.Ctx) error {
	var payload dto.BuildingUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	item, err := h.service.Update(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "update building", err)
	}
	return utils.SendSuccess(c, "building updated", item)
}

func (h *BuildingHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), currentActor(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "delete building", err)
	}
	return utils.SendSuccess(c, "building deleted", nil)
}

func (h *BuildingHandler) nearest(c *fiber.Ctx) error {
	point, ok := pointParams(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid coordinates")
	}
	item, err := h.service.Nearest(requestContext(c), currentActor(c), point)
	if err != nil {
		return respondError(c, h.logger, "nearest building", err)
	}
	return utils.SendSuccess(c, "nearest building", item)
}

func (h *BuildingHandler) radius(c *fiber.Ctx) error {
	point, ok := pointParams(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid coordinates")
	}
	var radius float64
	if raw := strings.TrimSpace(c.Query("radius")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid radius")
		}
		radius = parsed
	}
	items, err := h.service.WithinRadius(requestContext(c), currentActor(c), point, radius)
	if err != nil {
		return respondError(c, h.logger, "buildings in radius", err)
	}
	return utils.SendSuccess(c, "buildings in radius", items)
}

func (h *BuildingHandler) here(c *fiber.Ctx) error {
	item, err := h.service.AtMyLocation(requestContext(c), currentActor(c))
	if err != nil {
		return respondError(c, h.logger, "building at location", err)
	}
	return utils.SendSuccess(c, "building at your location", item)
}

func pointParams(c *fiber.Ctx) (geo.Point, bool) {
	lat, err := strconv.ParseFloat(c.Params("latitude"), 64)
	if err != nil {
		return geo.Point{}, false
	}
	lng, err := strconv.ParseFloat(c.Params("longitude"), 64)
	if err != nil {
		return geo.Point{}, false
	}
	return geo.Point{Latitude: lat, Longitude: lng}, true
}
