package storage

import (
	"errors"

	"github.com/waboard/waboard-backend/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on unique constraint violations
	ErrDuplicate = errors.New("record already exists")
)

// Store defines the interface for storage operations
type Store interface {
	// User operations
	CreateUser(user *models.User) (*models.User, error)
	GetUser(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	ListUsers(query *models.UserQuery) (*models.PaginatedUsers, error)
	UpdateUser(user *models.User) error
	DeleteUser(id uint) error

	// Post operations
	CreatePost(post *models.Post) (*models.Post, error)
	GetPost(id uint) (*models.Post, error)
	ListPosts() ([]*models.Post, error)
	SetPostPublished(id uint, published bool) (*models.Post, error)

	// WhatsApp session records
	CreateSession(session *models.WhatsappSession) (*models.WhatsappSession, error)
	GetSession(id uint) (*models.WhatsappSession, error)
	GetSessionByName(name string) (*models.WhatsappSession, error)
	ListSessions() ([]*models.WhatsappSession, error)
	ListActiveSessions() ([]*models.WhatsappSession, error)
	UpdateSession(session *models.WhatsappSession) error
	DeleteSession(id uint) error

	// Inbound message records (append-only)
	CreateMessage(msg *models.Message) (*models.Message, error)
}
