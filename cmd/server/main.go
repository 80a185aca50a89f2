package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"graysky/internal/config"
	"graysky/internal/database"
	"graysky/internal/handlers"
	"graysky/internal/logging"
	"graysky/internal/middleware"
	"graysky/internal/services"
	"graysky/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Graysky Agent API...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err == nil {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Storage: %s)", cfg.Port, cfg.StorageBackend)

	// Select the storage backend for both registries at startup
	var (
		visitorStore  store.VisitorStore
		feedbackStore store.FeedbackStore
		db            *database.DB
	)

	switch cfg.StorageBackend {
	case config.BackendSQLite:
		var err error
		db, err = database.New(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Initialize(); err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}

		visitorStore = store.NewSQLiteVisitorStore(db)
		feedbackStore = store.NewSQLiteFeedbackStore(db)

	default:
		fileVisitors, err := store.NewFileVisitorStore(filepath.Join(cfg.DataDir, "welcome_book.json"))
		if err != nil {
			log.Fatalf("❌ Failed to open welcome book store: %v", err)
		}
		defer fileVisitors.Close()

		fileFeedback, err := store.NewFileFeedbackStore(filepath.Join(cfg.DataDir, "feedback.json"))
		if err != nil {
			log.Fatalf("❌ Failed to open feedback store: %v", err)
		}
		defer fileFeedback.Close()

		visitorStore = fileVisitors
		feedbackStore = fileFeedback
	}
	log.Println("✅ Storage backend initialized")
	logging.WithStore(cfg.StorageBackend).Info("storage ready")

	// Initialize services
	visitorService := services.NewVisitorService(visitorStore, cfg.RateLimitWindow, cfg.MaxVisitors)
	feedbackService := services.NewFeedbackService(feedbackStore, cfg.MaxFeedback)

	contentService, err := services.NewContentService(cfg.ContentDir)
	if err != nil {
		log.Fatalf("❌ Failed to initialize content service: %v", err)
	}
	defer contentService.Close()

	if err := contentService.Watch(); err != nil {
		log.Printf("⚠️  Content watcher disabled: %v", err)
	} else {
		log.Println("✅ Content watcher started")
	}

	// Initialize handlers
	homeHandler := handlers.NewHomeHandler()
	aboutHandler := handlers.NewAboutHandler()
	contentHandler := handlers.NewContentHandler(contentService)
	welcomeBookHandler := handlers.NewWelcomeBookHandler(visitorService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	healthHandler := handlers.NewHealthHandler(db, cfg.StorageBackend)

	app := fiber.New(fiber.Config{
		AppName:      "Graysky Agent API",
		ErrorHandler: errorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:3000, https://graysky.ai, https://api.graysky.ai, https://agents.graysky.ai",
		AllowMethods: "GET, POST",
		AllowHeaders: "Content-Type, Authorization",
	}))
	app.Use(middleware.GlobalAPIRateLimiter(middleware.LoadRateLimitConfig()))
	if cfg.Environment != "production" {
		app.Use(logger.New())
	}

	// Prometheus metrics
	prometheus := fiberprometheus.New("graysky")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Routes
	app.Get("/", homeHandler.Handle)
	app.Get("/about", aboutHandler.Handle)
	app.Get("/articles", contentHandler.ListArticles)
	app.Get("/articles/:slug", contentHandler.GetArticle)
	app.Get("/projects", contentHandler.ListProjects)
	app.Get("/projects/:slug", contentHandler.GetProject)
	app.Get("/welcome-book", welcomeBookHandler.List)
	app.Post("/welcome-book", welcomeBookHandler.Sign)
	app.Get("/feedback", feedbackHandler.List)
	app.Post("/feedback", feedbackHandler.Submit)
	app.Get("/health", healthHandler.Handle)

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Server shutdown error: %v", err)
		}
	}()

	log.Printf("🌐 Listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}

	log.Println("👋 Server stopped")
}

// errorHandler keeps unexpected fiber errors in the same JSON envelope the
// handlers use.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
