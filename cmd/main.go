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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/polishedlabs/salonpulse/internal/api"
	"github.com/polishedlabs/salonpulse/internal/auth"
	"github.com/polishedlabs/salonpulse/internal/config"
	"github.com/polishedlabs/salonpulse/internal/database"
	"github.com/polishedlabs/salonpulse/internal/forecast"
	"github.com/polishedlabs/salonpulse/internal/insight"
	"github.com/polishedlabs/salonpulse/internal/middleware"
	"github.com/polishedlabs/salonpulse/internal/nlquery"
	"github.com/polishedlabs/salonpulse/internal/quota"
	"github.com/polishedlabs/salonpulse/internal/recommend"
	"github.com/polishedlabs/salonpulse/pkg/cache"
	"github.com/polishedlabs/salonpulse/pkg/models"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  SalonPulse - Salon Analytics Backend")
	fmt.Println("==============================================")

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	fmt.Printf("Starting server on port %s...\n", cfg.Port)

	// Initialize database connection.
	db, err := database.New(cfg.DSN())
	if err != nil {
		log.Printf("WARNING: Database unavailable (%v). API will answer 503 until it recovers.", err)
		db = nil
	} else {
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		if err := db.SeedTemplates(ctx); err != nil {
			log.Printf("WARNING: Failed to seed recommendation templates: %v", err)
		}
		log.Printf("Database connected (%s) and migrations applied.", cfg.RedactedDSN())
	}

	// Initialize Redis-backed cache.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := cache.New(ctx, cfg.RedisAddr(), cfg.RedisPassword)
	if err != nil {
		log.Printf("WARNING: Redis unavailable (%v). Query caching and rate limits are disabled.", err)
		store = nil
	} else {
		defer store.Close()
		log.Println("Redis connected.")
	}

	// Initialize components.
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	enforcer := quota.NewEnforcer(db, store, cfg.QuotaFailOpen)

	var queryService *nlquery.Service
	var forecastService *forecast.Service
	var insightEngine *insight.Engine
	var recommendEngine *recommend.Engine
	if db != nil {
		queryService = nlquery.NewService(db, store, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
		forecastService = forecast.NewService(db)
		insightEngine = insight.NewEngine(db)
		recommendEngine = recommend.NewEngine(db)
	}

	handlers := &api.Handlers{
		DB:        db,
		Cache:     store,
		Issuer:    issuer,
		Query:     queryService,
		Quota:     enforcer,
		Forecast:  forecastService,
		Insights:  insightEngine,
		Recommend: recommendEngine,
	}

	// Set up Gin router.
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())

	// CORS for the dashboard frontend.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check.
	r.GET("/health", handlers.HealthCheck)

	v1 := r.Group("/api/v1")

	// Public auth routes.
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", handlers.Register)
		authGroup.POST("/login", handlers.Login)
	}

	// Everything below requires a valid token. Per-tenant rate limiting sits
	// behind auth so the key is the tenant, not the client IP.
	protected := v1.Group("")
	protected.Use(middleware.RequireAuth(issuer))
	protected.Use(middleware.RateLimitMiddleware(store, 120, time.Minute))
	{
		protected.GET("/auth/me", handlers.Me)

		// Natural-language querying.
		protected.POST("/query", handlers.AskQuery)
		protected.POST("/query/generate-sql", handlers.GenerateSQL)
		protected.GET("/query/history", handlers.QueryHistory)
		protected.POST("/query/:id/feedback", handlers.RateQuery)

		// Training data management. Mutations need manager or above.
		protected.GET("/training/status", handlers.TrainingStatus)
		managers := protected.Group("", middleware.RequireRole(models.RoleManager))
		{
			managers.POST("/training/auto", handlers.AutoTrain)
			managers.POST("/training/retrain", handlers.Retrain)
			managers.POST("/training/items", handlers.AddTraining)
		}

		// Insights.
		protected.POST("/insights/generate", handlers.GenerateInsights)
		protected.GET("/insights", handlers.ListInsights)
		protected.GET("/insights/stats", handlers.InsightStats)
		protected.GET("/insights/:id", handlers.GetInsight)
		protected.PATCH("/insights/:id/status", handlers.UpdateInsightStatus)
		protected.PATCH("/insights/batch", handlers.BatchUpdateInsights)
		protected.DELETE("/insights/:id", handlers.DeleteInsight)

		// Predictions.
		protected.GET("/predictions/revenue", handlers.PredictRevenue)
		protected.GET("/predictions/revenue/anomalies", handlers.RevenueAnomalies)
		protected.GET("/predictions/bookings", handlers.PredictBookings)
		protected.GET("/predictions/churn", handlers.PredictChurn)
		protected.GET("/predictions/clv", handlers.PredictCLV)
		protected.GET("/predictions/capacity", handlers.PredictCapacity)
		protected.GET("/predictions/trends", handlers.PredictTrends)
		protected.GET("/predictions/dashboard", handlers.PredictionDashboard)
		protected.GET("/predictions", handlers.ListPredictions)
		protected.POST("/predictions/:id/feedback", handlers.PredictionFeedback)
		managers.POST("/predictions/models/retrain", handlers.RetrainModels)

		// Recommendations.
		protected.POST("/recommendations/generate", handlers.GenerateRecommendations)
		protected.POST("/recommendations/generate/:category", handlers.GenerateRecommendationByCategory)
		protected.POST("/recommendations/save", handlers.SaveRecommendation)
		protected.GET("/recommendations", handlers.ListRecommendations)
		protected.GET("/recommendations/dashboard", handlers.RecommendationDashboard)
		protected.GET("/recommendations/:id", handlers.GetRecommendation)
		protected.PATCH("/recommendations/:id/status", handlers.UpdateRecommendationStatus)

		// POS integrations hold credentials, so admin or above only.
		admins := protected.Group("", middleware.RequireRole(models.RoleAdmin))
		{
			admins.POST("/integrations", handlers.CreateIntegration)
			admins.GET("/integrations", handlers.ListIntegrations)
			admins.GET("/integrations/:id", handlers.GetIntegration)
			admins.PUT("/integrations/:id", handlers.UpdateIntegration)
			admins.DELETE("/integrations/:id", handlers.DeleteIntegration)
		}
	}

	// Start HTTP server with graceful shutdown.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("SalonPulse API is ready on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited.")
}
