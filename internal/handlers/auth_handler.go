package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/nanosoft-labs/auth-backend/internal/apperr"
	"github.com/nanosoft-labs/auth-backend/internal/dto"
	"github.com/nanosoft-labs/auth-backend/internal/middleware"
	"github.com/nanosoft-labs/auth-backend/internal/services"
)

type AuthHandler struct {
	session *services.SessionService
}

func NewAuthHandler(session *services.SessionService) *AuthHandler {
	return &AuthHandler{session: session}
}

// IssueTokenPair handles POST /auth/token.
func (h *AuthHandler) IssueTokenPair(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if !parse(c, &req) {
		return nil
	}

	pair, err := h.session.Authenticate(c.Context(), req.Email, req.Password, req.DeviceToken, req.DeviceType)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pair)
}

// ExchangeGoogle handles POST /auth/token/exchange/google.
func (h *AuthHandler) ExchangeGoogle(c *fiber.Ctx) error {
	var req dto.GoogleExchangeRequest
	if !parse(c, &req) {
		return nil
	}

	pair, err := h.session.AuthenticateWithGoogle(c.Context(), req.IDToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pair)
}

// Refresh handles POST /auth/token/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if !parse(c, &req) {
		return nil
	}

	pair, err := h.session.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pair)
}

// Revoke handles POST /auth/token/revoke.
func (h *AuthHandler) Revoke(c *fiber.Ctx) error {
	if err := h.session.Revoke(c.Context(), c.Get(fiber.HeaderAuthorization)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "You have been logged out."})
}

// ChangePassword handles PUT /auth/password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.MessageResponse{
			Message: "Invalid Token",
		})
	}

	var req dto.ChangePasswordRequest
	if !parse(c, &req) {
		return nil
	}

	if err := h.session.ChangePassword(c.Context(), userID, req.Email, req.OldPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Your password has been changed."})
}

// ForgotPassword handles POST /auth/forgotpwd.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if !parse(c, &req) {
		return nil
	}

	if err := h.session.RequestPasswordRecovery(c.Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "A password reset token has been sent."})
}

// ResetForgotPassword handles POST /auth/forgotpwd/reset.
func (h *AuthHandler) ResetForgotPassword(c *fiber.Ctx) error {
	var req dto.ResetForgotPasswordRequest
	if !parse(c, &req) {
		return nil
	}

	if err := h.session.ResetPassword(c.Context(), req.Email, req.ForgotPwdToken, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Your password has been reset."})
}

// parse decodes and validates a request body. On failure it writes the 400
// response itself and reports false; handlers bail out with a nil return.
func parse(c *fiber.Ctx, req interface{}) bool {
	if err := c.BodyParser(req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
		return false
	}
	if err := dto.Validate(req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
		return false
	}
	return true
}

// respondError maps a catalog error to its wire shape. Anything that is not
// a catalog error is a fault the caller gets no detail about.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		slog.Info("request failed", "code", appErr.Code, "diagnostic", appErr.Diagnostic)
		return c.Status(appErr.Status).JSON(dto.ErrorResponse{
			Error: dto.ErrorBody{
				Code:    appErr.Code,
				Message: appErr.Message,
				Action:  appErr.Action,
			},
		})
	}

	slog.Error("unclassified failure", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.MessageResponse{
		Message: "Internal server error",
	})
}
