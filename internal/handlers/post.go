package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/waboard/waboard-backend/internal/models"
	"github.com/waboard/waboard-backend/internal/storage"
)

// PostHandler handles blog post requests
type PostHandler struct {
	store storage.Store
}

// NewPostHandler creates a new post handler
func NewPostHandler(store storage.Store) *PostHandler {
	return &PostHandler{store: store}
}

// Create adds a new post
func (h *PostHandler) Create(c *fiber.Ctx) error {
	var create models.PostCreate
	if err := c.BodyParser(&create); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if create.Title == "" || create.AuthorID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title and author_id are required",
		})
	}

	post, err := h.store.CreatePost(&models.Post{
		Title:     create.Title,
		Slug:      create.Slug,
		Thumbnail: create.Thumbnail,
		Excerpt:   create.Excerpt,
		Content:   create.Content,
		Published: create.Published,
		AuthorID:  create.AuthorID,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Slug already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create post",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// List returns all posts with their authors, newest first
func (h *PostHandler) List(c *fiber.Ctx) error {
	posts, err := h.store.ListPosts()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch posts",
		})
	}
	return c.JSON(posts)
}

// Publish marks a post published
func (h *PostHandler) Publish(c *fiber.Ctx) error {
	return h.setPublished(c, true)
}

// Unpublish marks a post unpublished
func (h *PostHandler) Unpublish(c *fiber.Ctx) error {
	return h.setPublished(c, false)
}

func (h *PostHandler) setPublished(c *fiber.Ctx, published bool) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post ID",
		})
	}

	post, err := h.store.SetPostPublished(uint(id), published)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post not found",
		})
	}

	return c.JSON(post)
}
