package handlers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserEndpointsRequireAuth(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodGet, "/api/users/", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUserCreateAndGet(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerUser(t, app, "admin@example.com")

	resp, created := doJSON(t, app, fiber.MethodPost, "/api/users/", token, fiber.Map{
		"email":    "bob@example.com",
		"name":     "Bob",
		"password": "secret123",
		"role":     "Moderator",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Moderator", created["role"])
	assert.NotContains(t, created, "password")

	resp, fetched := doJSON(t, app, fiber.MethodGet, "/api/users/2", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob@example.com", fetched["email"])
}

func TestUserUpdateConflictLeavesRecordUnchanged(t *testing.T) {
	app, store := newTestApp(t)
	token := registerUser(t, app, "alice@example.com")

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/users/", token, fiber.Map{
		"email":    "bob@example.com",
		"name":     "Bob",
		"password": "secret123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Patching Bob onto Alice's email is rejected
	resp, body := doJSON(t, app, fiber.MethodPatch, "/api/users/2", token, fiber.Map{
		"email": "alice@example.com",
		"name":  "Robert",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Email already exists", body["error"])

	// The stored record must not carry any part of the rejected patch
	bob, err := store.GetUser(2)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", bob.Email)
	assert.Equal(t, "Bob", bob.Name)
}

func TestUserUpdateAndDelete(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerUser(t, app, "alice@example.com")

	resp, updated := doJSON(t, app, fiber.MethodPatch, "/api/users/1", token, fiber.Map{
		"name": "Alice Cooper",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alice Cooper", updated["name"])
	assert.Equal(t, "alice@example.com", updated["email"])

	resp, _ = doJSON(t, app, fiber.MethodDelete, "/api/users/1", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/users/1", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUserList(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerUser(t, app, "alice@example.com")

	for _, name := range []string{"Bob", "Carol"} {
		resp, _ := doJSON(t, app, fiber.MethodPost, "/api/users/", token, fiber.Map{
			"email":    name + "@example.com",
			"name":     name,
			"password": "secret123",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/users/?take=2", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, float64(3), meta["total"])
	assert.Equal(t, float64(2), meta["totalPages"])
	assert.Equal(t, true, meta["hasNext"])

	resp, body = doJSON(t, app, fiber.MethodGet, "/api/users/?search=carol", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Carol", data[0].(map[string]interface{})["name"])
}
