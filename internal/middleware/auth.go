package middleware

import (
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nanosoft-labs/auth-backend/internal/apperr"
	"github.com/nanosoft-labs/auth-backend/internal/config"
	"github.com/nanosoft-labs/auth-backend/internal/dto"
	"github.com/nanosoft-labs/auth-backend/internal/services"
)

// JWTProtected gates a route on a correctly signed, unexpired access token.
// Each rejection cause has a fixed message: absent header, expired token and
// everything else. Clients match on these strings.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			message := "Invalid Token"
			switch {
			case c.Get(fiber.HeaderAuthorization) == "":
				message = "No authorization token was found"
			case errors.Is(err, jwt.ErrTokenExpired):
				message = "Jwt Token Expired"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.MessageResponse{
				Message: message,
			})
		},
	})
}

// RevocationGuard rejects access tokens that carry a valid signature but
// have been tombstoned by a logout. Runs after JWTProtected.
func RevocationGuard(session *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken, err := services.BearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.MessageResponse{
				Message: "Invalid Token",
			})
		}

		revoked, err := session.IsAccessTokenRevoked(c.Context(), accessToken)
		if err != nil || revoked {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.MessageResponse{
				Message: "Invalid Token",
			})
		}
		return c.Next()
	}
}

// RequireLoggedOut rejects callers that still hold a live session. The
// forgot-password reset flow must not be reachable while logged in; the
// caller is told to log out first.
func RequireLoggedOut(codec *services.TokenCodec, session *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}

		accessToken, err := services.BearerFromHeader(header)
		if err != nil {
			return c.Next()
		}
		if _, err := codec.ParseAccessToken(accessToken); err != nil {
			return c.Next()
		}
		if revoked, err := session.IsAccessTokenRevoked(c.Context(), accessToken); err == nil && revoked {
			return c.Next()
		}

		e := apperr.ByCode(apperr.CodeLogoutRequired)
		return c.Status(e.Status).JSON(dto.ErrorResponse{
			Error: dto.ErrorBody{Code: e.Code, Message: e.Message},
		})
	}
}

// UserID extracts the authenticated user id placed in the context by
// JWTProtected.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("no token in context")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("unexpected claims type")
	}
	sub, _ := claims["user"].(string)
	return uuid.Parse(sub)
}
