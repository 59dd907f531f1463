package storage

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/waboard/waboard-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/PostgreSQL
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// translate maps GORM errors onto the store sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// User operations

func (d *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if err := d.db.Create(user).Error; err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (d *DatabaseStore) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := d.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (d *DatabaseStore) ListUsers(query *models.UserQuery) (*models.PaginatedUsers, error) {
	skip, take := 0, 10
	search := ""
	if query != nil {
		if query.Skip > 0 {
			skip = query.Skip
		}
		if query.Take > 0 {
			take = query.Take
		}
		search = query.Search
	}

	tx := d.db.Model(&models.User{})
	if search != "" {
		pattern := "%" + search + "%"
		tx = tx.Where("email ILIKE ? OR name ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, translate(err)
	}

	var users []*models.User
	if err := tx.Order("id DESC").Offset(skip).Limit(take).Find(&users).Error; err != nil {
		return nil, translate(err)
	}

	page := skip/take + 1
	totalPages := int((total + int64(take) - 1) / int64(take))

	return &models.PaginatedUsers{
		Data: users,
		Meta: models.PaginationMeta{
			Total:      total,
			Page:       page,
			Limit:      take,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

func (d *DatabaseStore) UpdateUser(user *models.User) error {
	return translate(d.db.Save(user).Error)
}

func (d *DatabaseStore) DeleteUser(id uint) error {
	result := d.db.Delete(&models.User{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Post operations

func (d *DatabaseStore) CreatePost(post *models.Post) (*models.Post, error) {
	if err := d.db.Create(post).Error; err != nil {
		return nil, translate(err)
	}
	return post, nil
}

func (d *DatabaseStore) GetPost(id uint) (*models.Post, error) {
	var post models.Post
	if err := d.db.Preload("Author").First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (d *DatabaseStore) ListPosts() ([]*models.Post, error) {
	var posts []*models.Post
	if err := d.db.Preload("Author").Order("id DESC").Find(&posts).Error; err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (d *DatabaseStore) SetPostPublished(id uint, published bool) (*models.Post, error) {
	var post models.Post
	if err := d.db.First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	post.Published = published
	if err := d.db.Save(&post).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// WhatsApp session records

func (d *DatabaseStore) CreateSession(session *models.WhatsappSession) (*models.WhatsappSession, error) {
	if err := d.db.Create(session).Error; err != nil {
		return nil, translate(err)
	}
	return session, nil
}

func (d *DatabaseStore) GetSession(id uint) (*models.WhatsappSession, error) {
	var session models.WhatsappSession
	if err := d.db.First(&session, id).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (d *DatabaseStore) GetSessionByName(name string) (*models.WhatsappSession, error) {
	var session models.WhatsappSession
	if err := d.db.Where("session_name = ?", name).First(&session).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (d *DatabaseStore) ListSessions() ([]*models.WhatsappSession, error) {
	var sessions []*models.WhatsappSession
	if err := d.db.Order("id").Find(&sessions).Error; err != nil {
		return nil, translate(err)
	}
	return sessions, nil
}

func (d *DatabaseStore) ListActiveSessions() ([]*models.WhatsappSession, error) {
	var sessions []*models.WhatsappSession
	if err := d.db.Where("is_active = ?", true).Order("id").Find(&sessions).Error; err != nil {
		return nil, translate(err)
	}
	return sessions, nil
}

func (d *DatabaseStore) UpdateSession(session *models.WhatsappSession) error {
	return translate(d.db.Save(session).Error)
}

func (d *DatabaseStore) DeleteSession(id uint) error {
	result := d.db.Delete(&models.WhatsappSession{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Inbound message records

func (d *DatabaseStore) CreateMessage(msg *models.Message) (*models.Message, error) {
	if msg.Type == "" {
		msg.Type = models.MessageTypeReceived
	}
	if err := d.db.Create(msg).Error; err != nil {
		return nil, translate(err)
	}
	return msg, nil
}
