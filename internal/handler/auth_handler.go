package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/middleware"
	"lifesavers-united/internal/service/auth"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input domain.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	user, err := h.authService.Register(c.Context(), input)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			return middleware.Conflict("Email already registered")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":    user,
		"message": "Registration successful.",
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input domain.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	user, tokens, err := h.authService.Login(c.Context(), input)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return middleware.Unauthorized("Invalid email or password")
		}
		if errors.Is(err, auth.ErrAccountDisabled) {
			return middleware.Forbidden("Account is disabled")
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":          user,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	})
}

func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	tokens, err := h.authService.RefreshToken(c.Context(), input.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrUserNotFound) {
			return middleware.Unauthorized("Invalid refresh token")
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return middleware.Unauthorized("User not found")
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *AuthHandler) AssignRole(c *fiber.Ctx) error {
	var input struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return middleware.BadRequest("Invalid user id")
	}
	switch input.Role {
	case domain.RoleVolunteer, domain.RoleCoordinator, domain.RoleSuperuser:
	default:
		return middleware.BadRequest("Unknown role")
	}

	if err := h.authService.AssignRole(c.Context(), userID, input.Role); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return middleware.NotFound("User not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"message": "Role updated."})
}
