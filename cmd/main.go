package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"vet1stop-platform/internal/app"
	"vet1stop-platform/internal/config"
	"vet1stop-platform/internal/logger"
	"vet1stop-platform/internal/resources"
	"vet1stop-platform/internal/telemetry"
	"vet1stop-platform/middleware"
	"vet1stop-platform/routes"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	log := logger.InitLogger(cfg)

	// Telemetry
	if cfg.OTelEnabled {
		shutdown, err := telemetry.InitTracer("vet1stop-platform", cfg.OTelEndpoint, cfg.GinMode, 1.0)
		if err != nil {
			log.Warn("Tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Warn("Metrics disabled", "error", err)
	}

	// Stores
	stores, err := app.Open(cfg, log, metrics)
	if err != nil {
		logger.Fatal("Failed to open store", "error", err)
	}
	defer stores.Close()

	svc := resources.NewService(stores.Query, stores.Counts, log)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))
	if cfg.OTelEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(metrics))

	limits := middleware.RateLimitConfig{Requests: cfg.RateLimitReqs, Window: cfg.RateLimitWindowDuration()}
	if stores.Redis != nil {
		router.Use(middleware.RateLimitMiddleware(stores.Redis, limits, log))
	} else {
		router.Use(middleware.NewLocalRateLimiter(limits).Middleware())
	}

	// Setup routes
	checks := map[string]routes.HealthCheck{"store": stores.Ping}
	if stores.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return stores.Redis.Ping(ctx).Err() }
	}
	routes.SetupHealthRoutes(router, checks)
	routes.SetupResourceRoutes(router, svc)

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server starting", "port", cfg.Port, "driver", cfg.StoreDriver, "collection", cfg.ResourcesCollection)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}
