package dto

import (
	"time"

	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is returned by POST /api/auth/register.
type RegisterResponse struct {
	Message string             `json:"message"`
	User    domain.UserSummary `json:"user"`
}

// LoginResponse is returned by POST /api/auth/login.
type LoginResponse struct {
	Message   string             `json:"message"`
	User      domain.UserSummary `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// ClaimsResponse echoes verified token claims.
type ClaimsResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IssuedAt  int64       `json:"iat"`
	ExpiresAt int64       `json:"exp"`
}

// ProfileResponse is returned by the profile routes.
type ProfileResponse struct {
	Message string         `json:"message"`
	User    ClaimsResponse `json:"user"`
}

// NewClaimsResponse projects claims for clients.
func NewClaimsResponse(c *auth.Claims) ClaimsResponse {
	resp := ClaimsResponse{ID: c.UserID, Email: c.Email, Role: c.Role}
	if c.IssuedAt != nil {
		resp.IssuedAt = c.IssuedAt.Unix()
	}
	if c.ExpiresAt != nil {
		resp.ExpiresAt = c.ExpiresAt.Unix()
	}
	return resp
}
