package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"

	"github.com/talkboard/backend/internal/advisory"
	"github.com/talkboard/backend/internal/cache"
	"github.com/talkboard/backend/internal/config"
	"github.com/talkboard/backend/internal/database"
	"github.com/talkboard/backend/internal/gateway"
	"github.com/talkboard/backend/internal/handlers"
	"github.com/talkboard/backend/internal/ipinfo"
	"github.com/talkboard/backend/internal/logging"
	"github.com/talkboard/backend/internal/middleware"
	"github.com/talkboard/backend/internal/moderation"
	"github.com/talkboard/backend/internal/routes"
	"github.com/talkboard/backend/internal/session"
	"github.com/talkboard/backend/internal/storage"
	"github.com/talkboard/backend/internal/store"
)

func main() {
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.StdoutHandler(),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Redis: the service runs without it, the ban-gate mirror and unread
	// counters just degrade to their fallbacks.
	redisClient, err := cache.Connect(cfg)
	if err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}
	defer redisClient.Close()

	// Data layer and the state snapshot on top of it
	gw := gateway.NewGorm(database.DB)
	gate := moderation.NewBanGate(redisClient, gw.IsIPBanned)
	st := store.New(gw, gate)

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := st.Resync(startupCtx); err != nil {
		cancel()
		slog.Error("initial state load failed", "error", err)
		os.Exit(1)
	}

	// Public address lookup, diagnostic only
	ipClient := ipinfo.NewClient(cfg.IPLookupURL, cfg.IPLookupTimeout)
	if ip, err := ipClient.PublicIP(startupCtx); err != nil {
		slog.Warn("public ip lookup failed", "error", err)
	} else {
		slog.Info("public ip resolved", "ip", ip)
	}

	// Attachment storage, optional
	var attachments *storage.Storage
	if cfg.S3Endpoint != "" {
		attachments, err = storage.New(startupCtx, cfg)
		if err != nil {
			slog.Warn("object storage unavailable, attachments disabled", "error", err)
			attachments = nil
		}
	}
	cancel()

	sessions := session.NewManager(gw, gate, cfg.JWTSecret, cfg.JWTExpiry)
	advisoryClient := advisory.NewClient(cfg.AdvisoryAPIKey, cfg.AdvisoryAPIURL, cfg.AdvisoryModel, cfg.AdvisoryTimeout)

	// Handlers
	authHandler := handlers.NewAuthHandler(sessions)
	forumHandler := handlers.NewForumHandler(st)
	userHandler := handlers.NewUserHandler(st)
	moderationHandler := handlers.NewModerationHandler(st, advisoryClient)
	chatHandler := handlers.NewChatHandler(gw, st, redisClient, attachments)
	healthHandler := handlers.NewHealthHandler(redisClient)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    12 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, sessions, authHandler, forumHandler, userHandler, moderationHandler, chatHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
