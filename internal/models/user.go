package models

import (
	"strings"

	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin     = "Admin"
	RoleModerator = "Moderator"
	RoleUser      = "User"
)

// User represents an account that can log in and own sessions and posts
type User struct {
	gorm.Model

	Email    string `json:"email" gorm:"uniqueIndex"`
	Name     string `json:"name"`
	Password string `json:"-"` // bcrypt hash, never serialized
	Image    string `json:"image"`
	Role     string `json:"role" gorm:"default:User"`

	Posts    []Post            `json:"posts,omitempty" gorm:"foreignKey:AuthorID"`
	Sessions []WhatsappSession `json:"sessions,omitempty" gorm:"foreignKey:UserID"`
}

// BeforeCreate normalizes the email and applies the default role
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// UserRegistration is used for new user creation and auth register
type UserRegistration struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=6"`
	Image    string `json:"image"`
	Role     string `json:"role"`
}

// UserUpdate carries optional fields for PATCH requests
type UserUpdate struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
	Image *string `json:"image"`
	Role  *string `json:"role"`
}

// UserQuery holds pagination and search parameters for listing users
type UserQuery struct {
	Skip   int    `json:"skip"`
	Take   int    `json:"take"`
	Search string `json:"search"`
}

// PaginationMeta describes one page of a paginated listing
type PaginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// PaginatedUsers is the response shape for user listings
type PaginatedUsers struct {
	Data []*User        `json:"data"`
	Meta PaginationMeta `json:"meta"`
}
