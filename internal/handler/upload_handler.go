package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/utils"
)

// UploadHandler stores images and links them to the owning record.
type UploadHandler struct {
	uploads service.UploadService
	auth    service.AuthService
	issues  service.IssueService
	logger  zerolog.Logger
}

// NewUploadHandler constructs an upload handler.
func NewUploadHandler(uploads service.UploadService, auth service.AuthService, issues service.IssueService, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		uploads: uploads,
		auth:    auth,
		issues:  issues,
		logger:  logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Register wires upload routes.
func (h *UploadHandler) Register(router fiber.Router) {
	router.Post("/avatar", h.avatar)
	router.Post("/issues/:id", h.issueImage)
}

func (h *UploadHandler) avatar(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}
	ctx, actor := requestContext(c), currentActor(c)

	stored, err := h.uploads.UploadImage(ctx, actor, service.UploadAvatar, file)
	if err != nil {
		return respondError(c, h.logger, "upload avatar", err)
	}
	user, err := h.auth.UpdateProfile(ctx, actor, dto.UserUpdateRequest{ProfilePicture: &stored.URL})
	if err != nil {
		return respondError(c, h.logger, "link avatar", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "avatar uploaded", fiber.Map{
		"upload": stored,
		"user":   user,
	})
}

func (h *UploadHandler) issueImage(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}
	ctx, actor := requestContext(c), currentActor(c)

	issue, err := h.issues.Get(ctx, actor, c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "load issue", err)
	}
	if !actor.Owns(issue.ReporterID) {
		return respondError(c, h.logger, "upload issue image", apperror.Forbidden("only the reporter can attach images"))
	}

	stored, err := h.uploads.UploadImage(ctx, actor, service.UploadIssueImage, file)
	if err != nil {
		return respondError(c, h.logger, "upload issue image", err)
	}
	issue, err = h.issues.AttachImage(ctx, actor, issue.ID, stored.URL)
	if err != nil {
		return respondError(c, h.logger, "attach issue image", err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "image attached", fiber.Map{
		"upload": stored,
		"issue":  issue,
	})
}
