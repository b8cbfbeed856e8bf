package main

import (
	"context"                         // context package is needed for Redis operations and shutdown
	"errors"                          // Server close detection
	"expense_tracker/internal/api"    // Custom package for API handlers
	"expense_tracker/internal/config" // Custom package for configuration
	"expense_tracker/internal/db"     // Custom package for database access
	"net/http"                        // HTTP server
	"os/signal"                       // Shutdown signals
	"syscall"                         // SIGTERM
	"time"                            // Shutdown timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	if err := config.ConfigureLogging(cfg); err != nil {
		logrus.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatal(err) // Refuse to start half-configured
	}

	gormDB, err := db.Open(cfg) // Connect to the configured engine
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if !cfg.IsProd {
		if err := db.Migrate(gormDB); err != nil { // Keep local schemas current
			logrus.Fatalf("failed to migrate: %v", err)
		}
	}

	var redisClient *redis.Client // Nil disables caching
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logrus.Warn("REDIS_ADDR not set, report caching disabled")
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(cfg, gormDB, redisClient) // Gin router with every route
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server stopped: %v", err)
		}
	}()

	<-ctx.Done() // Wait for a shutdown signal
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	logrus.Info("Server stopped")
}
