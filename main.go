package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/waboard/waboard-backend/database"
	"github.com/waboard/waboard-backend/internal/media"
	"github.com/waboard/waboard-backend/internal/models"
	"github.com/waboard/waboard-backend/internal/routes"
	"github.com/waboard/waboard-backend/internal/services"
	"github.com/waboard/waboard-backend/internal/storage"
	"github.com/waboard/waboard-backend/internal/transport"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - checking environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Println("⚠️  JWT_SECRET not set - tokens will not survive restarts")
	}

	// Initialize storage
	var store storage.Store
	useMemory := os.Getenv("USE_MEMORY_STORE") == "true"

	if useMemory {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.User{},
			&models.Post{},
			&models.WhatsappSession{},
			&models.Message{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
	}

	// Object storage for inbound media
	var mediaStore media.Store
	if minioStore, err := media.NewMinioStore(); err != nil {
		log.Printf("⚠️  Object storage unavailable - inbound media will not be saved: %v", err)
	} else {
		mediaStore = minioStore
	}

	// WhatsApp transport and session services. The transport shares the
	// application database, so it is only available with PostgreSQL.
	var whatsappService *services.WhatsAppService
	var whatsappTransport *transport.WhatsmeowTransport

	if useMemory {
		log.Println("⚠️  WhatsApp transport disabled with in-memory storage")
	} else {
		var err error
		whatsappTransport, err = transport.NewWhatsmeowTransport(context.Background(), database.DSN())
		if err != nil {
			log.Fatal("Failed to initialize WhatsApp transport:", err)
		}

		registry := services.NewRegistry()
		whatsappService = services.NewWhatsAppService(store, whatsappTransport, registry)

		pipeline := services.NewMessagePipeline(store, mediaStore, whatsappTransport)
		whatsappTransport.OnMessageReceived(pipeline.Handle)

		// Re-establish previously active sessions; handshakes run in the
		// background and never block startup
		whatsappService.RestoreSessions()

		log.Println("✅ WhatsApp services initialized")
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Waboard Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))

	// Root endpoint with service status
	app.Get("/", func(c *fiber.Ctx) error {
		response := fiber.Map{
			"service": "Waboard Backend API",
			"version": "1.0.0",
			"status":  "healthy",
			"endpoints": fiber.Map{
				"health":    "/health",
				"api":       "/api",
				"auth":      "/auth",
				"websocket": "/ws",
			},
		}

		if whatsappService != nil {
			response["whatsapp"] = fiber.Map{
				"live_sessions": whatsappService.Registry().Len(),
			}
		}

		if !useMemory && database.DB != nil {
			dbStatus := "connected"
			if sqlDB, err := database.DB.DB(); err != nil {
				dbStatus = "error: " + err.Error()
			} else if err := sqlDB.Ping(); err != nil {
				dbStatus = "error: " + err.Error()
			}
			response["database"] = fiber.Map{"status": dbStatus}
		}

		return c.JSON(response)
	})

	// Setup routes
	routes.SetupRoutes(app, store, whatsappService, mediaStore)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		if whatsappTransport != nil {
			log.Println("⏹️  Disconnecting WhatsApp sessions...")
			whatsappTransport.Shutdown()
		}
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 Waboard Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", storageType(useMemory))
	log.Printf("📱 WhatsApp: %s", whatsappStatus(whatsappService))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func storageType(useMemory bool) string {
	if useMemory {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func whatsappStatus(svc *services.WhatsAppService) string {
	if svc == nil {
		return "Disabled"
	}
	return "Enabled"
}
