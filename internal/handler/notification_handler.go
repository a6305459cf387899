package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/middleware"
	"github.com/noah-isme/plaksha-connect/internal/models"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// NotificationHandler manages SSE notification streams and inbox operations.
type NotificationHandler struct {
	service   service.NotificationService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewNotificationHandler constructs a handler instance. keepAlive is the
// interval between SSE comment frames; zero means 15 seconds.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger, keepAlive time.Duration) *NotificationHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &NotificationHandler{
		service:   service,
		logger:    logger.With().Str("component", "notification_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the notification routes. staff guards direct publishing.
func (h *NotificationHandler) Register(router fiber.Router, staff fiber.Handler) {
	if staff == nil {
		staff = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Get("/", h.list)
	router.Post("/", staff, h.publish)
	router.Get("/stream", middleware.WithAuth(h.stream, middleware.AuthOptions{RequireUser: true}))
	router.Get("/stats", h.stats)
	router.Put("/read-all", h.markAllRead)
	router.Put("/:id/read", h.markRead)
	router.Delete("/:id", h.delete)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	unread, err := parseQueryBool(c, "unread_only")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid unread_only flag")
	}
	query := service.NotificationQuery{
		Type:       c.Query("notification_type"),
		UnreadOnly: unread,
		Limit:      limit,
	}

	notifications, err := h.service.List(requestContext(c), currentActor(c), query)
	if err != nil {
		return respondError(c, h.logger, "list notifications", err)
	}
	return utils.SendSuccess(c, "notifications", notifications)
}

func (h *NotificationHandler) publish(c *fiber.Ctx) error {
	var payload dto.NotificationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	notification, err := h.service.Publish(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, "publish notification", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "notification created", notification)
}

func (h *NotificationHandler) stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(requestContext(c), currentActor(c))
	if err != nil {
		return respondError(c, h.logger, "notification stats", err)
	}
	return utils.SendSuccess(c, "notification stats", stats)
}

func (h *NotificationHandler) stream(c *fiber.Ctx) error {
	actor := currentActor(c)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	stream, cleanup := h.service.Subscribe(actor.UserID)
	logger := requestLogger(h.logger, c).With().Str("user_id", actor.UserID).Logger()
	interval := h.keepAlive

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cleanup()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// A failed write means the client went away.
		for {
			select {
			case notification, ok := <-stream:
				if !ok {
					return
				}
				if err := writeNotificationEvent(w, notification); err != nil {
					logger.Debug().Err(err).Msg("failed to write notification event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					logger.Debug().Err(err).Msg("notification stream closed")
					return
				}
			}
		}
	})

	return nil
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	notification, err := h.service.MarkRead(requestContext(c), currentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "mark notification read", err)
	}
	return utils.SendSuccess(c, "notification updated", notification)
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	count, err := h.service.MarkAllRead(requestContext(c), currentActor(c))
	if err != nil {
		return respondError(c, h.logger, "mark all notifications read", err)
	}
	return utils.SendSuccess(c, "notifications updated", fiber.Map{"marked_as_read": count})
}

func (h *NotificationHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), currentActor(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "delete notification", err)
	}
	return utils.SendSuccess(c, "notification deleted", nil)
}

func writeNotificationEvent(w *bufio.Writer, notification models.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: notification\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
