package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// ChallengeHandler exposes campus challenges.
type ChallengeHandler struct {
	service service.ChallengeService
	logger  zerolog.Logger
}

// NewChallengeHandler constructs the handler.
func NewChallengeHandler(service service.ChallengeService, logger zerolog.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		service: service,
		logger:  logger.With().Str("component", "challenge_handler").Logger(),
	}
}

// Register wires challenge routes.
func (h *ChallengeHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/active", h.active)
	router.Get("/my-challenges", h.mine)
	router.Get("/leaderboard", h.leaderboard)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/:id/participants", h.participants)
	router.Post("/:id/join", h.join)
	router.Post("/:id/leave", h.leave)
	router.Post("/:id/complete", h.complete)
	router.Put("/:id/progress", h.progress)
}

func (h *ChallengeHandler) list(c *fiber.Ctx) error {
	filter := repository.ChallengeFilter{
		Type:       c.Query("challenge_type"),
		Difficulty: c.Query("difficulty"),
	}
	items, err := h.service.List(requestContext(c), currentActor(c), filter)
	if err != nil {
		return respondError(c, h.logger, "list challenges", err)
	}
	return utils.SendSuccess(c, "challenges retrieved", items)
}

func (h *ChallengeHandler) active(c *fiber.Ctx) error {
	items, err := h.service.List(requestContext(c), currentActor(c), repository.ChallengeFilter{ActiveOnly: true})
	if err != nil {
		return respondError(c, h.logger, "list active challenges", err)
	}
	return utils.SendSuccess(c, "challenges retrieved", items)
}

func (h *ChallengeHandler) mine(c *fiber.Ctx) error {
	items, err := h.service.MyChallenges(requestContext(c), currentActor(c))
	if err != nil {
		return respondError(c, h.logger, "list my challenges", err)
	}
	return utils.SendSuccess(c, "challenges retrieved", items)
}

func (h *ChallengeHandler) leaderboard(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	entries, err := h.service.Leaderboard(requestContext(c), currentActor(c), limit)
	if err != nil {
		return respondError(c, h.logger, "leaderboard", err)
	}
	return utils.SendSuccess(c, "leaderboard retrieved", entries)
}

func (h *ChallengeHandler) get(c *fiber.Ctx) error {
	item, err := h.service.Get(requestContext(c), currentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "get challenge", err)
	}
	return utils.SendSuccess(c, "challenge retrieved", item)
}

func (h *ChallengeHandler) participants(c *fiber.Ctx) error {
	items, err := h.service.Participants(requestContext(c), currentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "list participants", err)
	}
	return utils.SendSuccess(c, "participants retrieved", items)
}

func (h *ChallengeHandler) create(c *fiber.Ctx) error {
	var payload dto.ChallengeCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	item, err := h.service.Create(requestContext(c), currentActor(c), payload)
	if err != nil {
		return respondError(c, h.logger, "create challenge", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "challenge created", item)
}

func (h *ChallengeHandler) update(c *fiber.Ctx) error {
	var payload dto.ChallengeUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	item, err := h.service.Update(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "update challenge", err)
	}
	return utils.SendSuccess(c, "challenge updated", item)
}

func (h *ChallengeHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), currentActor(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "delete challenge", err)
	}
	return utils.SendSuccess(c, "challenge deleted", nil)
}

func (h *ChallengeHandler) join(c *fiber.Ctx) error {
	participant, err := h.service.Join(requestContext(c), currentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "join challenge", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "joined challenge", participant)
}

func (h *ChallengeHandler) leave(c *fiber.Ctx) error {
	if err := h.service.Leave(requestContext(c), currentActor(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "leave challenge", err)
	}
	return utils.SendSuccess(c, "left challenge", nil)
}

type completeChallengeBody struct {
	Password           string `json:"password"`
	CompletionPassword string `json:"completion_password"`
}

// complete accepts the password as a query parameter or in a JSON body.
func (h *ChallengeHandler) complete(c *fiber.Ctx) error {
	password := c.Query("password")
	if password == "" && len(c.Body()) > 0 {
		var body completeChallengeBody
		if err := c.BodyParser(&body); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
		password = body.Password
		if password == "" {
			password = body.CompletionPassword
		}
	}
	if strings.TrimSpace(password) == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "password is required")
	}

	participant, err := h.service.Complete(requestContext(c), currentActor(c), c.Params("id"), password)
	if err != nil {
		return respondError(c, h.logger, "complete challenge", err)
	}
	return utils.SendSuccess(c, "challenge completed", participant)
}

func (h *ChallengeHandler) progress(c *fiber.Ctx) error {
	var body struct {
		Progress *int `json:"progress"`
	}
	if c.Query("progress") != "" {
		value, err := parseQueryInt(c, "progress")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid progress")
		}
		body.Progress = &value
	} else if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}
	if body.Progress == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "progress is required")
	}

	participant, err := h.service.SetProgress(requestContext(c), currentActor(c), c.Params("id"), *body.Progress)
	if err != nil {
		return respondError(c, h.logger, "update progress", err)
	}
	return utils.SendSuccess(c, "progress updated", participant)
}
