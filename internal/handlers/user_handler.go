package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nanosoft-labs/auth-backend/internal/dto"
	"github.com/nanosoft-labs/auth-backend/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Create handles POST /user/create.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if !parse(c, &req) {
		return nil
	}

	if err := h.users.Create(c.Context(), &req); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateUserResponse{Email: req.Email})
}

// Register handles POST /user/register.
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if !parse(c, &req) {
		return nil
	}

	if err := h.users.Register(c.Context(), &req); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateUserResponse{Email: req.Email})
}
