package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/api/dto"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/service"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// AuthHandler exposes registration, login and the claims echo routes.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{
		Message: "User registered successfully",
		User:    user.Summary(),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, issued, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.LoginResponse{
		Message:   "Login successful",
		User:      user.Summary(),
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	})
}

// Protected handles GET /api/auth/protected.
func (h *AuthHandler) Protected(c *fiber.Ctx) error {
	return claimsEcho(c, "This is a protected route")
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	return claimsEcho(c, "This is your profile")
}

// ProfileData handles GET /api/protected/profile.
func (h *AuthHandler) ProfileData(c *fiber.Ctx) error {
	return claimsEcho(c, "This is your profile data")
}

func claimsEcho(c *fiber.Ctx, message string) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return auth.ErrUnauthenticated
	}
	return c.JSON(dto.ProfileResponse{Message: message, User: dto.NewClaimsResponse(claims)})
}
