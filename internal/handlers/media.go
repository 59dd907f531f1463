package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/waboard/waboard-backend/internal/media"
)

// MediaHandler serves stored media blobs through presigned URLs
type MediaHandler struct {
	media media.Store
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(store media.Store) *MediaHandler {
	return &MediaHandler{media: store}
}

// Get redirects to a temporary download URL for the requested object
func (h *MediaHandler) Get(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Object key is required",
		})
	}

	if h.media == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Object storage is not configured",
		})
	}

	url, err := h.media.PresignedURL(c.Context(), key, 10*time.Minute)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Object not found",
		})
	}

	return c.Redirect(url, fiber.StatusFound)
}
