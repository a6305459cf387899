package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// AuthHandler wires the passcode sign-in flow and profile routes.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires /auth routes. protect guards routes that need a session;
// otpLimit and verifyLimit, when set, throttle passcode requests and guesses.
func (h *AuthHandler) Register(router fiber.Router, protect, otpLimit, verifyLimit fiber.Handler) {
	router.Post("/request-otp", orNext(otpLimit), h.requestOTP)
	router.Post("/verify-otp", orNext(verifyLimit), h.verifyOTP)
	router.Post("/register", h.register)
	router.Get("/me", protect, h.me)
}

// RegisterProfile wires /users routes behind an authenticated group.
func (h *AuthHandler) RegisterProfile(router fiber.Router) {
	router.Get("/me", h.me)
	router.Put("/me", h.updateProfile)
}

func (h *AuthHandler) requestOTP(c *fiber.Ctx) error {
	var payload dto.OTPRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	result, err := h.service.RequestOTP(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, "request otp", err)
	}
	return utils.SendSuccess(c, result.Message, result)
}

func (h *AuthHandler) verifyOTP(c *fiber.Ctx) error {
	var payload dto.OTPVerifyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	result, err := h.service.Verify(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, "verify otp", err)
	}
	if result.RequiresRegistration {
		return utils.SendSuccess(c, "registration required", result)
	}
	return utils.SendSuccess(c, "signed in", result)
}

type registerBody struct {
	dto.RegisterRequest
	VerificationToken string `json:"verification_token"`
}

// register takes the verification token from the body or a bearer header.
func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload registerBody
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	token := strings.TrimSpace(payload.VerificationToken)
	if token == "" {
		header := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
	}
	if token == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "verification token required")
	}

	result, err := h.service.Register(requestContext(c), token, payload.RegisterRequest)
	if err != nil {
		return respondError(c, h.logger, "register", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", result)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	user, err := h.service.Me(requestContext(c), currentActor(c))
	if err != nil {
		return respondError(c, h.logger, "load profile", err)
	}
	return utils.SendSuccess(c, "profile retrieved", user)
}

func (h *AuthHandler) updateProfile(c *fiber.Ctx) error {
	var payload dto.UserUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	user, err := h.service.UpdateProfile(requestContext(c), currentActor(c), payload)
	if err != nil {
		return respondError(c, h.logger, "update profile", err)
	}
	return utils.SendSuccess(c, "profile updated", user)
}

func orNext(h fiber.Handler) fiber.Handler {
	if h == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return h
}
