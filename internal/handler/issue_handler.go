package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// IssueHandler exposes campus issue reporting.
type IssueHandler struct {
	service service.IssueService
	logger  zerolog.Logger
}

// NewIssueHandler constructs the handler.
func NewIssueHandler(service service.IssueService, logger zerolog.Logger) *IssueHandler {
	return &IssueHandler{
		service: service,
		logger:  logger.With().Str("component", "issue_handler").Logger(),
	}
}

// Register wires issue routes. staff guards triage routes.
func (h *IssueHandler) Register(router fiber.Router, staff fiber.Handler) {
	if staff == nil {
		staff = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Patch("/:id/status", staff, h.updateStatus)
	router.Patch("/:id/assign/:user_id", staff, h.assign)
	router.Delete("/:id", h.delete)
}

func (h *IssueHandler) list(c *fiber.Ctx) error {
	mine, err := parseQueryBool(c, "my_issues")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid my_issues flag")
	}
	actor := currentActor(c)
	filter := repository.IssueFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	}
	if mine {
		filter.ReporterID = actor.UserID
	}

	issues, err := h.service.List(requestContext(c), actor, filter)
	if err != nil {
		return respondError(c, h.logger, "list issues", err)
	}
	return utils.SendSuccess(c, "issues retrieved", issues)
}

func (h *IssueHandler) get(c *fiber.Ctx) error {
	issue, err := h.service.Get(requestContext(c), currentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "get issue", err)
	}
	return utils.SendSuccess(c, "issue retrieved", issue)
}

func (h *IssueHandler) create(c *fiber.Ctx) error {
	var payload dto.IssueCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	issue, err := h.service.Create(requestContext(c), currentActor(c), payload)
	if err != nil {
		return respondError(c, h.logger, "create issue", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "issue reported", issue)
}

func (h *IssueHandler) update(c *fiber.Ctx) error {
	var payload dto.IssueUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	issue, err := h.service.Update(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "update issue", err)
	}
	return utils.SendSuccess(c, "issue updated", issue)
}

func (h *IssueHandler) updateStatus(c *fiber.Ctx) error {
	var payload dto.IssueStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	issue, err := h.service.UpdateStatus(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "update issue status", err)
	}
	return utils.SendSuccess(c, "issue status updated", issue)
}

func (h *IssueHandler) assign(c *fiber.Ctx) error {
	issue, err := h.service.Assign(requestContext(c), currentActor(c), c.Params("id"), c.Params("user_id"))
	if err != nil {
		return respondError(c, h.logger, "assign issue", err)
	}
	return utils.SendSuccess(c, "issue assigned", issue)
}

func (h *IssueHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), currentActor(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "delete issue", err)
	}
	return utils.SendSuccess(c, "issue deleted", nil)
}
