package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/nanosoft-labs/auth-backend/internal/config"
	"github.com/nanosoft-labs/auth-backend/internal/handlers"
	"github.com/nanosoft-labs/auth-backend/internal/middleware"
	"github.com/nanosoft-labs/auth-backend/internal/services"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	codec *services.TokenCodec,
	session *services.SessionService,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	// General rate limiter: 60 req/min per IP
	app.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	app.Get("/health", healthHandler.Check)

	// User provisioning, public
	user := app.Group("/user")
	user.Post("/create", userHandler.Create)
	user.Post("/register", userHandler.Register)

	// Auth routes are public and carry a stricter limit: 10 req/min per IP
	auth := app.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/token", authHandler.IssueTokenPair)
	auth.Post("/token/exchange/google", authHandler.ExchangeGoogle)
	auth.Post("/token/refresh", authHandler.Refresh)
	auth.Post("/forgotpwd", authHandler.ForgotPassword)
	auth.Post("/forgotpwd/reset",
		middleware.RequireLoggedOut(codec, session), authHandler.ResetForgotPassword)

	// Protected routes: signed, unexpired access token required. Revoke skips
	// the revocation guard so a second logout surfaces the catalog error
	// instead of a bare 401.
	auth.Post("/token/revoke",
		middleware.JWTProtected(cfg), authHandler.Revoke)
	auth.Put("/password",
		middleware.JWTProtected(cfg), middleware.RevocationGuard(session), authHandler.ChangePassword)

	// Unmatched routes get the fixed 404 body.
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": "Resource not found.",
			},
		})
	})
}
