package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/waboard/waboard-backend/internal/handlers"
	"github.com/waboard/waboard-backend/internal/media"
	"github.com/waboard/waboard-backend/internal/middleware"
	"github.com/waboard/waboard-backend/internal/services"
	"github.com/waboard/waboard-backend/internal/storage"
	"github.com/waboard/waboard-backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, whatsapp *services.WhatsAppService, mediaStore media.Store) {

	authHandler := handlers.NewAuthHandler(store)
	userHandler := handlers.NewUserHandler(store)
	postHandler := handlers.NewPostHandler(store)
	sessionHandler := handlers.NewSessionHandler(store, whatsapp)
	mediaHandler := handlers.NewMediaHandler(mediaStore)
	healthHandler := handlers.NewHealthHandler("1.0.0")

	app.Get("/health", healthHandler.Check)

	// ========== AUTH ROUTES ==========
	auth := app.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/profile", middleware.RequireAuth(), authHandler.Profile)

	// ========== API ROUTES ==========
	api := app.Group("/api")

	users := api.Group("/users", middleware.RequireAuth())
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.Get)
	users.Patch("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	posts := api.Group("/posts")
	posts.Post("/", middleware.RequireAuth(), postHandler.Create)
	posts.Get("/", postHandler.List)
	posts.Patch("/:id/publish", middleware.RequireAuth(), postHandler.Publish)
	posts.Patch("/:id/unpublish", middleware.RequireAuth(), postHandler.Unpublish)

	sessions := api.Group("/dashboard/sessions", middleware.RequireAuth())
	sessions.Get("/", sessionHandler.List)
	sessions.Post("/", sessionHandler.Create)
	sessions.Get("/:id", sessionHandler.Get)
	sessions.Patch("/:id", sessionHandler.Update)
	sessions.Delete("/:id", sessionHandler.Delete)

	// Public media paths recorded on message rows resolve here
	app.Get("/p/storage/*", mediaHandler.Get)

	// ========== REAL-TIME CHANNEL ==========
	if whatsapp != nil {
		gateway := ws.NewGateway(whatsapp)
		app.Use("/ws", ws.UpgradeRequired)
		app.Get("/ws", gateway.Handler())
	}
}
