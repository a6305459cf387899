package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// TeamHandler exposes team formation endpoints.
type TeamHandler struct {
	service service.TeamService
	logger  zerolog.Logger
}

// NewTeamHandler constructs the handler.
func NewTeamHandler(service service.TeamService, logger zerolog.Logger) *TeamHandler {
	return &TeamHandler{
		service: service,
		logger:  logger.With().Str("component", "team_handler").Logger(),
	}
}

// Register wires team routes. Static segments are registered ahead of :id.
func (h *TeamHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/my-teams", h.myTeams)
	router.Post("/requests/:rid/approve", h.approve)
	router.Post("/requests/:rid/reject", h.reject)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/join", h.join)
	router.Post("/:id/leave", h.leave)
	router.Get("/:id/requests", h.requests)
}

func (h *TeamHandler) list(c *fiber.Ctx) error {
	filter := repository.TeamFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	}
	teams, err := h.service.List(requestContext(c), currentActor(c), filter)
	if err != nil {
		return respondError(c, h.logger, "list teams", err)
	}
	return utils.SendSuccess(c, "teams retrieved", teams)
}

func (h *TeamHandler) myTeams(c *fiber.Ctx) error {
	teams, err := h.service.MyTeams(requestContext(c), currentActor(c))
	if err != nil {
		return respondError(c, h.logger, "list my teams", err)
	}
	return utils.SendSuccess(c, "teams retrieved", teams)
}

func (h *TeamHandler) get(c *fiber.Ctx) error {
	team, err := h.service.Get(requestContext(c), currentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "get team", err)
	}
	return utils.SendSuccess(c, "team retrieved", team)
}

func (h *TeamHandler) create(c *fiber.Ctx) error {
	var payload dto.TeamCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	team, err := h.service.Create(requestContext(c), currentActor(c), payload)
	if err != nil {
		return respondError(c, h.logger, "create team", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "team created", team)
}

func (h *TeamHandler) update(c *fiber.Ctx) error {
	var payload dto.TeamUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	team, err := h.service.Update(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "update team", err)
	}
	return utils.SendSuccess(c, "team updated", team)
}

func (h *TeamHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), currentActor(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "delete team", err)
	}
	return utils.SendSuccess(c, "team deleted", nil)
}

func (h *TeamHandler) join(c *fiber.Ctx) error {
	var payload dto.TeamJoinRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}
	request, err := h.service.RequestJoin(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "request join", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "join request sent", request)
}

func (h *TeamHandler) leave(c *fiber.Ctx) error {
	if err := h.service.Leave(requestContext(c), currentActor(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "leave team", err)
	}
	return utils.SendSuccess(c, "left team", nil)
}

func (h *TeamHandler) requests(c *fiber.Ctx) error {
	requests, err := h.service.ListRequests(requestContext(c), currentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "list join requests", err)
	}
	return utils.SendSuccess(c, "join requests retrieved", requests)
}

func (h *TeamHandler) approve(c *fiber.Ctx) error {
	if err := h.service.ApproveRequest(requestContext(c), currentActor(c), c.Params("rid")); err != nil {
		return respondError(c, h.logger, "approve join request", err)
	}
	return utils.SendSuccess(c, "join request approved", nil)
}

func (h *TeamHandler) reject(c *fiber.Ctx) error {
	if err := h.service.RejectRequest(requestContext(c), currentActor(c), c.Params("rid")); err != nil {
		return respondError(c, h.logger, "reject join request", err)
	}
	return utils.SendSuccess(c, "join request rejected", nil)
}
