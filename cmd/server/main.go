package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskbridge-backend/internal/chat"
	"taskbridge-backend/internal/config"
	"taskbridge-backend/internal/database"
	"taskbridge-backend/internal/feed"
	"taskbridge-backend/internal/handlers"
	"taskbridge-backend/internal/middleware"
	"taskbridge-backend/internal/policy"
	"taskbridge-backend/internal/services"
	"taskbridge-backend/internal/status"
	"taskbridge-backend/internal/supabase"
	"taskbridge-backend/internal/ws"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required; set it to your Supabase PostgreSQL connection string")
	}

	// Run migrations
	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		log.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()
	log.Println("Migrations completed successfully")

	// Initialize Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database client: %v", err)
	}
	defer dbClient.Close()

	// Core components
	tax := status.Default()
	merger := feed.NewMerger(tax)
	validator := policy.NewValidator()
	hub := ws.NewHub()
	transport := chat.NewSupabaseTransport(dbClient, realtimeClient, validator)

	// Services
	feedService := services.NewFeedService(dbClient, merger, tax)
	lifecycleService := services.NewLifecycleService(dbClient, realtimeClient, tax, hub)

	// Handlers
	projectsHandler := handlers.NewProjectsHandler(dbClient, storageClient, feedService, tax)
	messagesHandler := handlers.NewMessagesHandler(dbClient, storageClient, transport)
	lifecycleHandler := handlers.NewLifecycleHandler(dbClient, lifecycleService)
	feedHandler := handlers.NewFeedHandler(dbClient, storageClient, feedService)
	attachmentsHandler := handlers.NewAttachmentsHandler(dbClient, storageClient)
	streamHandler := handlers.NewStreamHandler(dbClient, feedService, feedHandler, merger, hub, transport)

	// Setup router
	router := gin.Default()

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Project routes
	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.DELETE("/projects/:project_id", projectsHandler.DeleteProject)

	// Feed, progress, timeline
	api.GET("/projects/:project_id/feed", feedHandler.GetFeed)
	api.GET("/projects/:project_id/progress", feedHandler.GetProgress)
	api.GET("/projects/:project_id/timeline", feedHandler.GetTimeline)

	// Chat
	api.GET("/projects/:project_id/messages", messagesHandler.ListMessages)
	api.POST("/projects/:project_id/messages", messagesHandler.SendMessage)
	api.POST("/projects/:project_id/attachments", attachmentsHandler.Upload)

	// Lifecycle
	api.POST("/projects/:project_id/status", lifecycleHandler.Transition)
	api.POST("/projects/:project_id/quote", lifecycleHandler.Quote)

	// Live feed stream
	wsGroup := router.Group("/ws")
	wsGroup.Use(middleware.AuthMiddleware(cfg))
	wsGroup.GET("/projects/:project_id", streamHandler.Stream)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
