package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// AnnouncementHandler handles announcement endpoints.
type AnnouncementHandler struct {
	service service.AnnouncementService
	logger  zerolog.Logger
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(service service.AnnouncementService, logger zerolog.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		service: service,
		logger:  logger.With().Str("component", "announcement_handler").Logger(),
	}
}

// Register wires routes for announcements. staff guards the write routes.
func (h *AnnouncementHandler) Register(router fiber.Router, staff fiber.Handler) {
	if staff == nil {
		staff = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Get("/", h.list)
	router.Post("/", staff, h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", staff, h.update)
	router.Delete("/:id", staff, h.delete)
}

func (h *AnnouncementHandler) list(c *fiber.Ctx) error {
	filter := repository.AnnouncementFilter{
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	}
	items, err := h.service.List(requestContext(c), currentActor(c), filter)
	if err != nil {
		return respondError(c, h.logger, "list announcements", err)
	}
	return utils.SendSuccess(c, "announcements retrieved", items)
}

func (h *AnnouncementHandler) get(c *fiber.Ctx) error {
	item, err := h.service.Get(requestContext(c), currentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "get announcement", err)
	}
	return utils.SendSuccess(c, "announcement retrieved", item)
}

func (h *AnnouncementHandler) create(c *fiber.Ctx) error {
	var payload dto.AnnouncementCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	item, err := h.service.Create(requestContext(c), currentActor(c), payload)
	if err != nil {
		return respondError(c, h.logger, "create announcement", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "announcement created", item)
}

func (h *AnnouncementHandler) update(c *fiber.Ctx) error {
	var payload dto.AnnouncementUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	item, err := h.service.Update(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "update announcement", err)
	}
	return utils.SendSuccess(c, "announcement updated", item)
}

func (h *AnnouncementHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), currentActor(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "delete announcement", err)
	}
	return utils.SendSuccess(c, "announcement deleted", nil)
}
