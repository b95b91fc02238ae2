package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/nanosoft-labs/auth-backend/internal/cache"
	"github.com/nanosoft-labs/auth-backend/internal/config"
	"github.com/nanosoft-labs/auth-backend/internal/database"
	"github.com/nanosoft-labs/auth-backend/internal/dto"
	"github.com/nanosoft-labs/auth-backend/internal/handlers"
	"github.com/nanosoft-labs/auth-backend/internal/logging"
	"github.com/nanosoft-labs/auth-backend/internal/middleware"
	"github.com/nanosoft-labs/auth-backend/internal/notify"
	"github.com/nanosoft-labs/auth-backend/internal/routes"
	"github.com/nanosoft-labs/auth-backend/internal/services"
	"github.com/nanosoft-labs/auth-backend/internal/store"
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
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Optional revocation lookaside
	var revocations services.RevocationMarker
	var revocationCache *cache.RevocationCache
	if cfg.RedisURL != "" {
		revocationCache, err = cache.NewRevocationCache(cfg.RedisURL, cfg.AccessTokenTTL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		revocations = revocationCache
		slog.Info("revocation cache enabled")
	}

	// Recovery token delivery
	var notifier notify.RecoveryNotifier = notify.LogNotifier{}
	var amqpNotifier *notify.AmqpNotifier
	if cfg.AmqpURL != "" {
		amqpNotifier, err = notify.NewAmqpNotifier(cfg.AmqpURL, cfg.AmqpQueue)
		if err != nil {
			slog.Error("amqp connection failed", "error", err)
			os.Exit(1)
		}
		notifier = amqpNotifier
		slog.Info("recovery delivery queue connected", "queue", cfg.AmqpQueue)
	}

	// Services
	credStore := store.New(db)
	codec := services.NewTokenCodec(cfg.JWTSecret, cfg.AccessTokenTTL)
	sessionService := services.NewSessionService(
		credStore, codec, services.NewGoogleJWKSClient(), notifier, revocations, cfg.GoogleClientID)
	userService := services.NewUserService(credStore)

	// Handlers
	authHandler := handlers.NewAuthHandler(sessionService)
	userHandler := handlers.NewUserHandler(userService)
	healthHandler := handlers.NewHealthHandler(db)

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
		BodyLimit:    1 * 1024 * 1024,
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
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, codec, sessionService, authHandler, userHandler, healthHandler)

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

	sentry.Flush(2 * time.Second)
	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if amqpNotifier != nil {
		if err := amqpNotifier.Close(); err != nil {
			slog.Error("amqp close error", "error", err)
		}
	}
	if revocationCache != nil {
		if err := revocationCache.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
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

	return c.Status(code).JSON(dto.MessageResponse{Message: message})
}
