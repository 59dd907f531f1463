package models

import (
	"strings"

	"gorm.io/gorm"
)

// Post represents a blog post
type Post struct {
	gorm.Model

	Title     string `json:"title"`
	Slug      string `json:"slug" gorm:"uniqueIndex"`
	Thumbnail string `json:"thumbnail"`
	Excerpt   string `json:"excerpt"`
	Content   string `json:"content"`
	Published bool   `json:"published" gorm:"default:false"`
	AuthorID  uint   `json:"author_id"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

// BeforeCreate derives the slug from the title when not provided
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.Slug == "" {
		p.Slug = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(p.Title), " ", "-"))
	}
	return nil
}

// PostCreate is used for new post creation
type PostCreate struct {
	Title     string `json:"title" validate:"required"`
	Slug      string `json:"slug"`
	Thumbnail string `json:"thumbnail"`
	Excerpt   string `json:"excerpt"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
	AuthorID  uint   `json:"author_id" validate:"required"`
}
