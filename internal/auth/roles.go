package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/domain"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// RequireRole ensures the caller's role is one of allowed. With no roles given any
// authenticated caller passes. Unknown roles never match.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return ErrUnauthenticated
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		role := domain.ParseRole(string(claims.Role))
		if role == domain.RoleUnknown {
			return apperrors.NewForbidden("insufficient role")
		}
		if _, exists := allowedSet[role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures the gate admitted the caller.
func RequireAuthenticated() fiber.Handler {
	return RequireRole()
}

// ParseRoles converts configured tags into roles. Unknown tags are kept as RoleUnknown so a
// list made only of unrecognised tags admits nobody instead of everybody.
func ParseRoles(raw []string) []domain.Role {
	out := make([]domain.Role, 0, len(raw))
	for _, r := range raw {
		out = append(out, domain.ParseRole(r))
	}
	return out
}
