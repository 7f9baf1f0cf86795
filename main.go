package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"eyeclinic-server/internal/config"
	"eyeclinic-server/internal/models"
	"eyeclinic-server/internal/notify"
	"eyeclinic-server/internal/routes"
	"eyeclinic-server/internal/scheduler"
	"eyeclinic-server/internal/scheduling"
)

func main() {
	// Load environment variables; a missing .env is fine in production
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Create a DatabaseConfig for models
	modelDbConfig := models.DatabaseConfig{
		DSN: cfg.Database.DSN,
	}

	// Initialize database connection
	db, err := models.InitDB(modelDbConfig)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	// Idempotent admin bootstrap, outside the request path
	if err := models.EnsureAdminUser(db, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatalf("Error bootstrapping admin user: %v", err)
	}

	// Build the scheduling core
	notifier := notify.NewService(cfg, logger)
	sched := scheduler.New(db, notifier, logger, scheduling.SlotConfig{
		OpeningHour: cfg.Clinic.OpeningHour,
		ClosingHour: cfg.Clinic.ClosingHour,
		SlotMinutes: cfg.Clinic.SlotMinutes,
	}, cfg.FrontendURL)

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Set up routes
	routes.SetupRoutes(router, db, cfg, sched)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	fmt.Printf("Server running on port %s\n", cfg.Port)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
