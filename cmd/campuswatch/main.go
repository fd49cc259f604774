package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/config"
	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/campuswatch/campuswatch/internal/handlers"
	"github.com/campuswatch/campuswatch/internal/jobs"
	"github.com/campuswatch/campuswatch/internal/middleware"
	"github.com/campuswatch/campuswatch/internal/notify"
	"github.com/campuswatch/campuswatch/internal/services"
	"github.com/campuswatch/campuswatch/internal/store"
	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

const staleCheckInterval = 5 * time.Minute

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting CampusWatch incident reporting service...")

	if cfg.AdminPassword == "" {
		log.Fatalf("ADMIN_PASSWORD is not set")
	}

	// Hash the seed admin password
	adminPasswordHash, err := services.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	// Initialize database connection
	if err := database.Connect(cfg.DatabaseURL, logger.Warn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run database migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize default database records (seed admin, settings singletons)
	if err := database.InitializeDefaults(cfg.AdminName, cfg.AdminEmail, adminPasswordHash); err != nil {
		log.Fatalf("Failed to initialize database defaults: %v", err)
	}

	// Load the campus profile (locations, incident types, authority roles)
	profile := campus.DefaultProfile()
	if cfg.CampusProfilePath != "" {
		profile, err = campus.LoadProfile(cfg.CampusProfilePath)
		if err != nil {
			log.Fatalf("Failed to load campus profile: %v", err)
		}
		log.Printf("Loaded campus profile from %s", cfg.CampusProfilePath)
	}
	log.Printf("Campus profile: %d locations, %d incident types", len(profile.Locations), len(profile.IncidentTypes))

	// Initialize JWT authentication middleware
	jwtAuth := middleware.NewJWTAuthMiddleware(&middleware.JWTAuthConfig{
		JWTSecret:      cfg.JWTSecret,
		JWTExpiryHours: cfg.JWTExpiryHours,
		SkipPaths: []string{
			"/health",
			"/auth/register",
			"/auth/login",
		},
	})

	// Slack escalation notifier, configured from the settings record
	slackNotifier := notify.NewSlackNotifier()

	// Incident stream: mirror + websocket fan-out
	mirror := store.NewMirror()
	streamHandler := handlers.NewStreamHandler(mirror)

	// Seed the mirror so the first subscriber sees existing incidents
	var existing []database.Incident
	if err := database.GetDB().Order("reported_at DESC").Limit(500).Find(&existing).Error; err != nil {
		log.Printf("Warning: Failed to preload incidents into the stream mirror: %v", err)
	} else {
		mirror.Replace(existing)
		log.Printf("Stream mirror preloaded with %d incident(s)", len(existing))
	}

	// Domain services
	incidentService := services.NewIncidentService(database.GetDB(), profile, streamHandler, slackNotifier)
	userService := services.NewUserService(database.GetDB(), profile)

	// HTTP handlers
	httpHandler := handlers.NewHTTPHandler()
	authHandler := handlers.NewAuthHandler(userService, jwtAuth)
	apiHandler := handlers.NewAPIHandler(incidentService, userService, profile)
	apiHandler.SetSettingsReloader(slackNotifier.Reload)

	// Set up HTTP server routes
	mux := http.NewServeMux()
	httpHandler.SetupRoutes(mux)
	authHandler.SetupRoutes(mux)
	apiHandler.SetupRoutes(mux)
	streamHandler.SetupRoutes(mux)

	// Wrap all routes: CORS, request ids, request deadline, then JWT auth
	corsMiddleware := middleware.NewCORSMiddleware() // Allow all origins
	timeoutMiddleware := middleware.NewTimeoutMiddleware(time.Duration(cfg.RequestTimeoutSeconds) * time.Second)
	handler := corsMiddleware.Wrap(middleware.RequestIDMiddleware(timeoutMiddleware.Wrap(jwtAuth.Wrap(mux))))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: handler,
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Background monitor for reports nobody has picked up
	stopMonitor := make(chan struct{})
	staleMonitor := jobs.NewStaleMonitor(database.GetDB(), slackNotifier)
	go staleMonitor.Start(staleCheckInterval, stopMonitor)

	log.Println("CampusWatch is running! Press Ctrl+C to exit.")
	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)
	log.Printf("API base URL: http://localhost:%d/api", cfg.HTTPPort)
	log.Printf("Incident stream: ws://localhost:%d/ws/incidents", cfg.HTTPPort)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal, cleaning up...")
	close(stopMonitor)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	log.Println("Shutdown complete")
}
