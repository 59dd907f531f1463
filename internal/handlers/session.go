package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/waboard/waboard-backend/internal/models"
	"github.com/waboard/waboard-backend/internal/services"
	"github.com/waboard/waboard-backend/internal/storage"
)

// SessionHandler handles dashboard session configuration requests. These
// manage the durable records only; live connections are driven over the
// websocket channel.
type SessionHandler struct {
	store    storage.Store
	whatsapp *services.WhatsAppService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store storage.Store, whatsapp *services.WhatsAppService) *SessionHandler {
	return &SessionHandler{store: store, whatsapp: whatsapp}
}

// Create adds a new session record
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var create models.SessionCreate
	if err := c.BodyParser(&create); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if create.SessionName == "" || create.WhatsAppNumber == "" || create.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_name, whatsapp_number and user_id are required",
		})
	}

	session := &models.WhatsappSession{
		SessionName:    create.SessionName,
		WhatsAppNumber: create.WhatsAppNumber,
		WebhookURL:     create.WebhookURL,
		IsActive:       true,
		UserID:         create.UserID,
	}
	if create.IsActive != nil {
		session.IsActive = *create.IsActive
	}

	session, err := h.store.CreateSession(session)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Session name already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// List returns all session records with their live connection state
func (h *SessionHandler) List(c *fiber.Ctx) error {
	sessions, err := h.store.ListSessions()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch sessions",
		})
	}

	type sessionStatus struct {
		*models.WhatsappSession
		IsConnected bool `json:"is_connected"`
	}

	result := make([]sessionStatus, 0, len(sessions))
	for _, session := range sessions {
		connected := false
		if h.whatsapp != nil {
			connected = h.whatsapp.CheckSession(session.SessionName)
		}
		result = append(result, sessionStatus{WhatsappSession: session, IsConnected: connected})
	}

	return c.JSON(result)
}

// Get retrieves one session record
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID",
		})
	}

	session, err := h.store.GetSession(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	return c.JSON(session)
}

// Update applies a partial update to a session record
func (h *SessionHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID",
		})
	}

	var update models.SessionUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	existing, err := h.store.GetSession(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	session := *existing
	if update.WhatsAppNumber != nil {
		session.WhatsAppNumber = *update.WhatsAppNumber
	}
	if update.WebhookURL != nil {
		session.WebhookURL = *update.WebhookURL
	}
	if update.IsActive != nil {
		session.IsActive = *update.IsActive
	}

	if err := h.store.UpdateSession(&session); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update session",
		})
	}

	return c.JSON(session)
}

// Delete removes a session record and tears down its live connection
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID",
		})
	}

	session, err := h.store.GetSession(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	if err := h.store.DeleteSession(uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete session",
		})
	}

	if h.whatsapp != nil {
		h.whatsapp.RemoveSession(session.SessionName)
	}

	return c.JSON(fiber.Map{
		"message": "Session deleted successfully",
	})
}
