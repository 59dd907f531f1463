package handlers_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionEndpointsRequireAuth(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodGet, "/api/dashboard/sessions/", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/dashboard/sessions/", "", fiber.Map{
		"session_name": "acct-1",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionCRUD(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerUser(t, app, "admin@example.com")

	// Create
	resp, created := doJSON(t, app, fiber.MethodPost, "/api/dashboard/sessions/", token, fiber.Map{
		"session_name":    "acct-1",
		"whatsapp_number": "+628123456789",
		"user_id":         1,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "acct-1", created["session_name"])
	assert.Equal(t, true, created["is_active"])

	// Duplicate name is rejected
	resp, body := doJSON(t, app, fiber.MethodPost, "/api/dashboard/sessions/", token, fiber.Map{
		"session_name":    "acct-1",
		"whatsapp_number": "+628000000000",
		"user_id":         1,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Session name already exists", body["error"])

	// List annotates live connection state; no lifecycle manager configured
	// means never connected
	req := httptest.NewRequest(fiber.MethodGet, "/api/dashboard/sessions/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, listResp.StatusCode)

	raw, err := io.ReadAll(listResp.Body)
	require.NoError(t, err)
	var sessions []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, false, sessions[0]["is_connected"])

	// Partial update
	resp, updated := doJSON(t, app, fiber.MethodPatch, "/api/dashboard/sessions/1", token, fiber.Map{
		"is_active": false,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, updated["is_active"])
	assert.Equal(t, "+628123456789", updated["whatsapp_number"])

	// Delete, then the record is gone
	resp, _ = doJSON(t, app, fiber.MethodDelete, "/api/dashboard/sessions/1", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/dashboard/sessions/1", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSessionCreateValidation(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerUser(t, app, "admin@example.com")

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/dashboard/sessions/", token, fiber.Map{
		"session_name": "acct-1",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/dashboard/sessions/not-a-number", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
