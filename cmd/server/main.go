package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/nothingmachine/chat-backend/internal/ai/anthropic"
	"github.com/nothingmachine/chat-backend/internal/api"
	"github.com/nothingmachine/chat-backend/internal/cache/redis"
	"github.com/nothingmachine/chat-backend/internal/config"
	"github.com/nothingmachine/chat-backend/internal/conversation"
	"github.com/nothingmachine/chat-backend/internal/profile"
	"github.com/nothingmachine/chat-backend/internal/storage"
	"github.com/nothingmachine/chat-backend/internal/storage/postgres"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	// Configure log format
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	logger.Info("starting nothing-machine chat backend")

	ctx := context.Background()

	// Connect to database, or run storage-less when no DSN is configured
	var store storage.ConversationStore = storage.Unconfigured{}
	if cfg.PersistenceEnabled() {
		db, err := postgres.New(ctx, cfg.Database.DSN, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to database")
		}
		defer db.Close()
		store = postgres.NewStore(db.Pool(), logger)
	} else {
		logger.Warn("no DATABASE_DSN configured; conversations will not be persisted")
	}

	// Initialize Redis-backed profile store, optional as well
	var cache *redis.Client
	if cfg.Redis.URI != "" {
		cache, err = redis.New(cfg.Redis.URI)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		defer cache.Close()
	} else {
		logger.Warn("no REDIS_URI configured; profile storage disabled")
	}
	profiles := profile.NewStore(cache)

	// Initialize Anthropic client; nil selects demo mode
	var anthropicClient *anthropic.Client
	if cfg.GenerationEnabled() {
		anthropicClient = anthropic.NewClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model)
	} else {
		logger.Warn("no ANTHROPIC_API_KEY configured; chat gateway running in demo mode")
	}

	// Initialize repository and API server
	convRepo := conversation.NewRepository(store, logger)
	server := api.NewServer(convRepo, profiles, anthropicClient, cfg.Anthropic.MaxTokens, logger)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Add middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Info("request")
			return nil
		},
	}))

	server.RegisterRoutes(e)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.WithField("addr", addr).Info("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown error")
	}

	logger.Info("server stopped")
}
