package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// MessHandler exposes mess meal reviews.
type MessHandler struct {
	service service.MessService
	logger  zerolog.Logger
}

// NewMessHandler constructs the handler.
func NewMessHandler(service service.MessService, logger zerolog.Logger) *MessHandler {
	return &MessHandler{
		service: service,
		logger:  logger.With().Str("component", "mess_handler").Logger(),
	}
}

// Register wires review routes.
func (h *MessHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/today", h.today)
	router.Get("/my-reviews", h.mine)
	router.Get("/averages", h.averages)
	router.Get("/average", h.average)
	router.Get("/has-reviewed", h.hasReviewed)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *MessHandler) list(c *fiber.Ctx) error {
	date := c.Query("meal_date")
	if date == "" && c.Query("start_date") == c.Query("end_date") {
		date = c.Query("start_date")
	}
	filter := repository.MessReviewFilter{MealType: c.Query("meal_type"), MealDate: date}
	reviews, err := h.service.List(requestContext(c), currentActor(c), filter)
	if err != nil {
		return respondError(c, h.logger, "list reviews", err)
	}
	return utils.SendSuccess(c, "reviews retrieved", reviews)
}

func (h *MessHandler) today(c *fiber.Ctx) error {
	reviews, err := h.service.Today(requestContext(c), currentActor(c), c.Query("meal_type"))
	if err != nil {
		return respondError(c, h.logger, "list today's reviews", err)
	}
	return utils.SendSuccess(c, "reviews retrieved", reviews)
}

func (h *MessHandler) mine(c *fiber.Ctx) error {
	reviews, err := h.service.Mine(requestContext(c), currentActor(c))
	if err != nil {
		return respondError(c, h.logger, "list my reviews", err)
	}
	return utils.SendSuccess(c, "reviews retrieved", reviews)
}

func (h *MessHandler) averages(c *fiber.Ctx) error {
	query := repository.AveragesQuery{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		MealType:  c.Query("meal_type"),
	}
	averages, err := h.service.DailyAverages(requestContext(c), currentActor(c), query)
	if err != nil {
		return respondError(c, h.logger, "daily averages", err)
	}
	return utils.SendSuccess(c, "averages retrieved", averages)
}

func (h *MessHandler) average(c *fiber.Ctx) error {
	mealType := c.Query("meal_type")
	date := c.Query("date")
	value, err := h.service.AverageRating(requestContext(c), currentActor(c), mealType, date)
	if err != nil {
		return respondError(c, h.logger, "average rating", err)
	}
	return utils.SendSuccess(c, "average retrieved", fiber.Map{
		"meal_type":      mealType,
		"date":           date,
		"average_rating": value,
	})
}

func (h *MessHandler) hasReviewed(c *fiber.Ctx) error {
	mealType := c.Query("meal_type")
	reviewed, err := h.service.HasReviewedToday(requestContext(c), currentActor(c), mealType)
	if err != nil {
		return respondError(c, h.logger, "check review", err)
	}
	return utils.SendSuccess(c, "review status", fiber.Map{"meal_type": mealType, "has_reviewed": reviewed})
}

func (h *MessHandler) get(c *fiber.Ctx) error {
	review, err := h.service.Get(requestContext(c), currentActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "get review", err)
	}
	return utils.SendSuccess(c, "review retrieved", review)
}

func (h *MessHandler) create(c *fiber.Ctx) error {
	var payload dto.MessReviewCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	review, err := h.service.Create(requestContext(c), currentActor(c), payload)
	if err != nil {
		return respondError(c, h.logger, "create review", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "review submitted", review)
}

func (h *MessHandler) update(c *fiber.Ctx) error {
	var payload dto.MessReviewUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	review, err := h.service.Update(requestContext(c), currentActor(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, "update review", err)
	}
	return utils.SendSuccess(c, "review updated", review)
}

func (h *MessHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), currentActor(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "delete review", err)
	}
	return utils.SendSuccess(c, "review deleted", nil)
}
