package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/config"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/database"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/events"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/handlers"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/middleware"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/notify"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/services"
	"github.com/nivcomp/attentive-customer-compass-sub000/internal/types"

	_ "github.com/nivcomp/attentive-customer-compass-sub000/docs/api" // Swagger docs
)

// @title Board Engine API
// @version 1.0.0
// @description Dynamic board model service: boards, typed columns, items, relationships and automations
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Event bus and services
	bus := events.NewDispatcher()
	async := cfg.AutomationDispatch == "async"

	boardSvc := &services.BoardService{DB: db}
	itemSvc := &services.ItemService{DB: db, Bus: bus, Async: async}
	relSvc := &services.RelationshipService{DB: db}
	prefSvc := &services.PreferenceService{DB: db}

	engine := &services.AutomationEngine{
		DB:            db,
		Items:         itemSvc,
		Relationships: relSvc,
	}
	if cfg.TasksURL != "" {
		engine.Tasks = notify.NewWebhookClient(cfg.TasksURL)
	}
	if cfg.NotifyURL != "" {
		engine.Notifier = notify.NewWebhookClient(cfg.NotifyURL)
	}
	bus.Subscribe(engine)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("boardengine")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")

	// Version middleware
	api.Use(middleware.VersionMiddleware())

	// Create handlers
	boardHandler := &handlers.BoardHandler{Boards: boardSvc}
	itemHandler := &handlers.ItemHandler{Items: itemSvc}
	relHandler := &handlers.RelationshipHandler{Relationships: relSvc}
	autoHandler := &handlers.AutomationHandler{Engine: engine}
	prefHandler := &handlers.PreferenceHandler{Preferences: prefSvc}

	// Board and column routes (reads for any user, schema changes admin-only)
	api.Get("/boards", middleware.AuthUser(), boardHandler.ListBoards)
	api.Get("/boards/:board", middleware.AuthUser(), boardHandler.GetBoard)
	api.Get("/boards/:board/columns", middleware.AuthUser(), boardHandler.ListColumns)
	api.Post("/boards", middleware.AuthAdmin(), boardHandler.CreateBoard)
	api.Patch("/boards/:board", middleware.AuthAdmin(), boardHandler.UpdateBoard)
	api.Delete("/boards/:board", middleware.AuthAdmin(), boardHandler.DeleteBoard)
	api.Post("/boards/:board/columns", middleware.AuthAdmin(), boardHandler.AddColumn)
	api.Patch("/boards/:board/columns/:column", middleware.AuthAdmin(), boardHandler.UpdateColumn)
	api.Delete("/boards/:board/columns/:column", middleware.AuthAdmin(), boardHandler.DeleteColumn)

	// Item routes
	api.Post("/boards/:board/items", middleware.AuthUser(), itemHandler.CreateItem)
	api.Get("/boards/:board/items", middleware.AuthUser(), itemHandler.ListItems)
	api.Get("/items/:item", middleware.AuthUser(), itemHandler.GetItem)
	api.Patch("/items/:item", middleware.AuthUser(), itemHandler.UpdateItem)
	api.Delete("/items/:item", middleware.AuthUser(), itemHandler.DeleteItem)

	// Relationship routes (definitions admin-only, linking open to users)
	api.Post("/relationships", middleware.AuthAdmin(), relHandler.CreateRelationship)
	api.Get("/boards/:board/relationships", middleware.AuthUser(), relHandler.ListRelationships)
	api.Delete("/relationships/:relationship", middleware.AuthAdmin(), relHandler.DeleteRelationship)
	api.Post("/relationships/:relationship/links", middleware.AuthUser(), relHandler.LinkItems)
	api.Delete("/links/:link", middleware.AuthUser(), relHandler.UnlinkItems)
	api.Get("/items/:item/links/:relationship", middleware.AuthUser(), relHandler.ListLinkedItems)

	// Automation routes (admin-only; the scan endpoint is for schedulers)
	api.Post("/boards/:board/automations", middleware.AuthAdmin(), autoHandler.CreateAutomation)
	api.Get("/boards/:board/automations", middleware.AuthAdmin(), autoHandler.ListAutomations)
	api.Post("/automations/scan", middleware.AuthAdmin(), autoHandler.RunDateScan)
	api.Get("/automations/:automation", middleware.AuthAdmin(), autoHandler.GetAutomation)
	api.Patch("/automations/:automation", middleware.AuthAdmin(), autoHandler.UpdateAutomation)
	api.Delete("/automations/:automation", middleware.AuthAdmin(), autoHandler.DeleteAutomation)
	api.Get("/automations/:automation/logs", middleware.AuthAdmin(), autoHandler.ListLogs)

	// Per-user view preferences
	api.Get("/boards/:board/preferences", middleware.AuthUser(), prefHandler.GetPreference)
	api.Put("/boards/:board/preferences", middleware.AuthUser(), prefHandler.SavePreference)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	log.Printf("Automation dispatch mode: %s", cfg.AutomationDispatch)
	log.Printf("Authorizer will be initialized on first authenticated request")

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	if e, ok := err.(*types.CustomError); ok {
		code = e.Code
		message = e.Message
		errorType = e.Type
	}

	// Check for version errors
	versionError := false
	if code == fiber.StatusConflict || (message != "" && len(message) >= 9 && message[:9] == "E_VERSION") {
		versionError = true
		errorType = "version"
		code = fiber.StatusConflict
	}

	return c.Status(code).JSON(fiber.Map{
		"status":       code,
		"message":      message,
		"ok":           false,
		"versionError": versionError,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"url":          c.OriginalURL(),
		"type":         errorType,
	})
}
