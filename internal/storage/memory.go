package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/waboard/waboard-backend/internal/models"
)

// MemoryStore holds all data in memory for tests and local development
type MemoryStore struct {
	users    map[uint]*models.User
	posts    map[uint]*models.Post
	sessions map[uint]*models.WhatsappSession
	messages map[uint]*models.Message

	// Mutexes for thread safety
	userMu    sync.RWMutex
	postMu    sync.RWMutex
	sessionMu sync.RWMutex
	messageMu sync.RWMutex

	// Counters for ID generation
	userCounter    uint
	postCounter    uint
	sessionCounter uint
	messageCounter uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uint]*models.User),
		posts:    make(map[uint]*models.Post),
		sessions: make(map[uint]*models.WhatsappSession),
		messages: make(map[uint]*models.Message),
	}
}

// User operations

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range m.users {
		if u.Email == email {
			return nil, ErrDuplicate
		}
	}

	m.userCounter++
	user.ID = m.userCounter
	user.Email = email
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetUser(id uint) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	return user, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListUsers(query *models.UserQuery) (*models.PaginatedUsers, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	skip, take := 0, 10
	search := ""
	if query != nil {
		if query.Skip > 0 {
			skip = query.Skip
		}
		if query.Take > 0 {
			take = query.Take
		}
		search = strings.ToLower(query.Search)
	}

	var matched []*models.User
	for _, user := range m.users {
		if search != "" &&
			!strings.Contains(strings.ToLower(user.Email), search) &&
			!strings.Contains(strings.ToLower(user.Name), search) {
			continue
		}
		matched = append(matched, user)
	}

	// Newest first, matching the database ordering
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	if skip > len(matched) {
		skip = len(matched)
	}
	end := skip + take
	if end > len(matched) {
		end = len(matched)
	}

	page := skip/take + 1
	totalPages := int((total + int64(take) - 1) / int64(take))

	return &models.PaginatedUsers{
		Data: matched[skip:end],
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

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	existing, exists := m.users[user.ID]
	if !exists {
		return ErrNotFound
	}

	email := strings.ToLower(strings.TrimSpace(user.Email))
	for id, u := range m.users {
		if id != user.ID && u.Email == email {
			return ErrDuplicate
		}
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStore) DeleteUser(id uint) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[id]; !exists {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// Post operations

func (m *MemoryStore) CreatePost(post *models.Post) (*models.Post, error) {
	m.postMu.Lock()
	defer m.postMu.Unlock()

	if post.Slug == "" {
		post.Slug = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(post.Title), " ", "-"))
	}

	for _, p := range m.posts {
		if p.Slug == post.Slug {
			return nil, ErrDuplicate
		}
	}

	m.postCounter++
	post.ID = m.postCounter
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Now()

	m.posts[post.ID] = post
	return post, nil
}

func (m *MemoryStore) GetPost(id uint) (*models.Post, error) {
	m.postMu.RLock()
	defer m.postMu.RUnlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, ErrNotFound
	}
	return post, nil
}

func (m *MemoryStore) ListPosts() ([]*models.Post, error) {
	m.postMu.RLock()
	defer m.postMu.RUnlock()

	posts := make([]*models.Post, 0, len(m.posts))
	for _, post := range m.posts {
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	return posts, nil
}

func (m *MemoryStore) SetPostPublished(id uint, published bool) (*models.Post, error) {
	m.postMu.Lock()
	defer m.postMu.Unlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, ErrNotFound
	}
	post.Published = published
	post.UpdatedAt = time.Now()
	return post, nil
}

// WhatsApp session records

func (m *MemoryStore) CreateSession(session *models.WhatsappSession) (*models.WhatsappSession, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	for _, s := range m.sessions {
		if s.SessionName == session.SessionName {
			return nil, ErrDuplicate
		}
	}

	m.sessionCounter++
	session.ID = m.sessionCounter
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	m.sessions[session.ID] = session
	return session, nil
}

func (m *MemoryStore) GetSession(id uint) (*models.WhatsappSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}
	return session, nil
}

func (m *MemoryStore) GetSessionByName(name string) (*models.WhatsappSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	for _, session := range m.sessions {
		if session.SessionName == name {
			return session, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListSessions() ([]*models.WhatsappSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	sessions := make([]*models.WhatsappSession, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

func (m *MemoryStore) ListActiveSessions() ([]*models.WhatsappSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var sessions []*models.WhatsappSession
	for _, session := range m.sessions {
		if session.IsActive {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

func (m *MemoryStore) UpdateSession(session *models.WhatsappSession) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	existing, exists := m.sessions[session.ID]
	if !exists {
		return ErrNotFound
	}

	session.CreatedAt = existing.CreatedAt
	session.UpdatedAt = time.Now()
	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryStore) DeleteSession(id uint) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Inbound message records

func (m *MemoryStore) CreateMessage(msg *models.Message) (*models.Message, error) {
	m.messageMu.Lock()
	defer m.messageMu.Unlock()

	m.messageCounter++
	msg.ID = m.messageCounter
	if msg.Type == "" {
		msg.Type = models.MessageTypeReceived
	}
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = time.Now()

	m.messages[msg.ID] = msg
	return msg, nil
}

// Messages returns a snapshot of all recorded messages (test helper)
func (m *MemoryStore) Messages() []*models.Message {
	m.messageMu.RLock()
	defer m.messageMu.RUnlock()

	msgs := make([]*models.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	return msgs
}
