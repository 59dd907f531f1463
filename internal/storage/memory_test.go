package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waboard/waboard-backend/internal/models"
)

func TestCreateUserNormalizesAndRejectsDuplicateEmail(t *testing.T) {
	store := NewMemoryStore()

	user, err := store.CreateUser(&models.User{
		Name:     "Alice",
		Email:    "  Alice@Example.COM ",
		Password: "hashed",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotZero(t, user.ID)

	_, err = store.CreateUser(&models.User{Name: "Other", Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGetUserByEmail(t *testing.T) {
	store := NewMemoryStore()
	created, err := store.CreateUser(&models.User{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	found, err := store.GetUserByEmail("ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = store.GetUserByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUsersPagination(t *testing.T) {
	store := NewMemoryStore()
	for _, name := range []string{"Alice", "Bob", "Carol", "Dave", "Erin"} {
		_, err := store.CreateUser(&models.User{Name: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}

	page, err := store.ListUsers(&models.UserQuery{Skip: 0, Take: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	// Newest first
	assert.Equal(t, "Erin", page.Data[0].Name)
	assert.Equal(t, int64(5), page.Meta.Total)
	assert.Equal(t, 3, page.Meta.TotalPages)
	assert.True(t, page.Meta.HasNext)
	assert.False(t, page.Meta.HasPrev)

	last, err := store.ListUsers(&models.UserQuery{Skip: 4, Take: 2})
	require.NoError(t, err)
	require.Len(t, last.Data, 1)
	assert.Equal(t, "Alice", last.Data[0].Name)
	assert.False(t, last.Meta.HasNext)
	assert.True(t, last.Meta.HasPrev)
}

func TestListUsersSearchMatchesNameAndEmail(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.CreateUser(&models.User{Name: "Alice Smith", Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = store.CreateUser(&models.User{Name: "Bob", Email: "bob@corp.example"})
	require.NoError(t, err)

	page, err := store.ListUsers(&models.UserQuery{Search: "smith"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Alice Smith", page.Data[0].Name)

	page, err = store.ListUsers(&models.UserQuery{Search: "CORP"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Bob", page.Data[0].Name)
}

func TestUpdateUserRejectsTakenEmail(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.CreateUser(&models.User{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := store.CreateUser(&models.User{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	bob.Email = "alice@example.com"
	assert.ErrorIs(t, store.UpdateUser(bob), ErrDuplicate)

	missing := &models.User{Name: "Ghost", Email: "ghost@example.com"}
	missing.ID = 999
	assert.ErrorIs(t, store.UpdateUser(missing), ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	store := NewMemoryStore()
	user, err := store.CreateUser(&models.User{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(user.ID))
	_, err = store.GetUser(user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteUser(user.ID), ErrNotFound)
}

func TestCreatePostRejectsDuplicateSlug(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.CreatePost(&models.Post{Title: "Hello", Slug: "hello"})
	require.NoError(t, err)

	_, err = store.CreatePost(&models.Post{Title: "Hello Again", Slug: "hello"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSetPostPublished(t *testing.T) {
	store := NewMemoryStore()
	post, err := store.CreatePost(&models.Post{Title: "Hello", Slug: "hello"})
	require.NoError(t, err)
	assert.False(t, post.Published)

	updated, err := store.SetPostPublished(post.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Published)

	_, err = store.SetPostPublished(999, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRecordsUniqueByName(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.CreateSession(&models.WhatsappSession{SessionName: "acct-1", UserID: 1})
	require.NoError(t, err)

	_, err = store.CreateSession(&models.WhatsappSession{SessionName: "acct-1", UserID: 2})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := store.GetSessionByName("acct-1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), found.UserID)
}

func TestListActiveSessionsFiltersInactive(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.CreateSession(&models.WhatsappSession{SessionName: "acct-1", IsActive: true})
	require.NoError(t, err)
	_, err = store.CreateSession(&models.WhatsappSession{SessionName: "acct-2", IsActive: false})
	require.NoError(t, err)
	_, err = store.CreateSession(&models.WhatsappSession{SessionName: "acct-3", IsActive: true})
	require.NoError(t, err)

	active, err := store.ListActiveSessions()
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "acct-1", active[0].SessionName)
	assert.Equal(t, "acct-3", active[1].SessionName)
}

func TestCreateMessageDefaultsType(t *testing.T) {
	store := NewMemoryStore()
	msg, err := store.CreateMessage(&models.Message{SessionName: "acct-1", From: "628111@s.whatsapp.net"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeReceived, msg.Type)
	assert.NotZero(t, msg.ID)
}
