package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/projectnav/navigator/internal/config"
	"github.com/projectnav/navigator/internal/handlers"
	"github.com/projectnav/navigator/internal/metrics"
	"github.com/projectnav/navigator/internal/middleware"
	"github.com/projectnav/navigator/internal/models"
	"github.com/projectnav/navigator/internal/services"
	"github.com/projectnav/navigator/internal/utils"
	"github.com/projectnav/navigator/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel)

	// Initialize JWT secret
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Start project status sweep scheduler
	sweeper := services.NewStatusSweeper(models.GetDB())
	if cfg.Scheduler.Enabled {
		if err := sweeper.Start(cfg.Scheduler.SweepCron); err != nil {
			logger.Fatalf("Failed to start status sweeper: %v", err)
		}
		defer sweeper.Stop()
	}

	llm := services.NewLLMService(&cfg.LLM)

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Create router
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(logger.GinLogger())
	r.Use(logger.GinRecovery())
	r.Use(middleware.CORS())
	r.Use(metrics.GinMiddleware())

	r.GET("/health", handlers.Health)
	r.GET("/metrics", metrics.Handler())

	// Auth routes (public)
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	r.POST("/signup", authHandler.Signup)
	r.POST("/login", authHandler.Login)

	// Protected routes
	protected := r.Group("")
	protected.Use(middleware.AuthRequired())
	{
		// Projects
		projectHandler := handlers.NewProjectHandler(models.GetDB())
		protected.GET("/projects", projectHandler.List)
		protected.GET("/projects/:id", projectHandler.GetByID)
		protected.POST("/projects", projectHandler.Create)
		protected.PUT("/projects/:id", projectHandler.Update)
		protected.DELETE("/projects/:id", projectHandler.Delete)
		protected.POST("/projects/:id/tasks", projectHandler.AddTask)

		// Chat (rate limited; each call hits the external LLM)
		chatLimiter := middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		chatHandler := handlers.NewChatHandler(models.GetDB(), llm)
		protected.POST("/chat", chatLimiter, chatHandler.Chat)
		protected.GET("/chat-history/:projectId", chatHandler.History)

		// Derived views
		chartHandler := handlers.NewChartHandler(models.GetDB())
		protected.POST("/generate-gantt", chartHandler.Gantt)
		protected.POST("/generate-wbs", chartHandler.WBS)

		// Document ingestion
		uploadHandler := handlers.NewUploadHandler(models.GetDB(), llm, &cfg.Upload)
		protected.POST("/upload-pdf", chatLimiter, uploadHandler.UploadPDF)
	}

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Infof("Server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
