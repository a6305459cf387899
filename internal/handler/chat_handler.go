package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/session"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// ChatHandler wires chat endpoints including the websocket upgrade.
type ChatHandler struct {
	service service.ChatService
	logger  zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(service service.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds chat routes under the provided router group. sendLimit,
// when set, guards message posting.
func (h *ChatHandler) Register(router fiber.Router, sendLimit fiber.Handler) {
	if sendLimit == nil {
		sendLimit = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Use("/groups/:id/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("actor", currentActor(c))
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/groups/:id/ws", websocket.New(h.handleConnection))

	router.Get("/groups", h.listGroups)
	router.Post("/groups", h.createGroup)
	router.Get("/groups/:id", h.getGroup)
	router.Put("/groups/:id", h.updateGroup)
	router.Post("/groups/:id/members", h.addMembers)
	router.Delete("/groups/:id/leave", h.leaveGroup)
	router.Get("/groups/:id/messages", h.history)
	router.Post("/groups/:id/messages", sendLimit, h.send)
}

func (h *ChatHandler) handleConnection(conn *websocket.Conn) {
	actor, _ := conn.Locals("actor").(session.Actor)
	groupID := strings.TrimSpace(conn.Params("id"))
	correlation, _ := conn.Locals("correlation_id").(string)
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.ChatConnectionOptions{
		Actor:         actor,
		GroupID:       groupID,
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Str("user_id", actor.UserID).Str("group_id", groupID).Msg("chat websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Str("user_id", actor.UserID).Str("group_id", groupID).Msg("chat websocket disconnected")
}

func (h *ChatHandler) listGroups(c *fiber.Ctx) error {
	groups, err := h.service.ListGroups(requestContext(c), currentActor(c))
	if err != nil {
		return respondError(c, h.logger, "list groups", err)
	}
	return utils.SendSuccess(c, "chat groups", groups)
}

func (h *ChatHandler) getGroup(c *fiber.Ctx) error {
	group, err := h.service.GetGroup(requestContext(c), currentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "get group", err)
	}
	return utils.SendSuccess(c, "chat group", group)
}

func (h *ChatHandler) createGroup(c *fiber.Ctx) error {
	var payload dto.ChatGroupCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	group, err := h.service.CreateGroup(requestContext(c), currentActor(c), payload)
	if err != nil {
		return respondError(c, h.logger, "create group", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "chat group created", group)
}

func (h *ChatHandler) updateGroup(c *fiber.Ctx) error {
	var payload dto.ChatGroupUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	group, err := h.service.UpdateGroup(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "update group", err)
	}
	return utils.SendSuccess(c, "chat group updated", group)
}

func (h *ChatHandler) addMembers(c *fiber.Ctx) error {
	var payload dto.ChatMembersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	group, err := h.service.AddMembers(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "add members", err)
	}
	return utils.SendSuccess(c, "members added", group)
}

func (h *ChatHandler) leaveGroup(c *fiber.Ctx) error {
	if err := h.service.LeaveGroup(requestContext(c), currentActor(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "leave group", err)
	}
	return utils.SendSuccess(c, "left group", nil)
}

func (h *ChatHandler) history(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	query := repository.MessageQuery{Before: strings.TrimSpace(c.Query("before")), Limit: limit}

	messages, err := h.service.History(requestContext(c), currentActor(c), c.Params("id"), query)
	if err != nil {
		return respondError(c, h.logger, "chat history", err)
	}
	return utils.SendSuccess(c, "chat history", messages)
}

func (h *ChatHandler) send(c *fiber.Ctx) error {
	var payload dto.ChatMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	message, err := h.service.Send(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "send message", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}
