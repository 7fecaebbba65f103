package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/event-service/pkg/util"
)

const claimsKey = "auth_claims"

type ctxKey struct{}

// Rejection reasons reported to the gate's observer. They never reach the client.
const (
	ReasonMissingHeader = "missing_header"
	ReasonBadScheme     = "bad_scheme"
	ReasonMalformed     = "malformed"
	ReasonBadSignature  = "bad_signature"
	ReasonExpired       = "expired"
	ReasonNotYetValid   = "not_yet_valid"
)

// ErrUnauthenticated is the single error every rejected call receives.
var ErrUnauthenticated = apperrors.NewUnauthorized("unauthenticated")

// GateObserver is notified of every gate decision. Metrics implement it.
type GateObserver interface {
	ObserveGate(admitted bool, reason string)
}

// AuthMiddleware admits calls carrying a valid bearer token and attaches the verified claims.
// It never consults the credential store: a validly signed token is trusted until it expires.
type AuthMiddleware struct {
	tokens   *TokenManager
	logger   *zap.Logger
	observer GateObserver
}

// NewAuthMiddleware constructs middleware. logger and observer may be nil.
func NewAuthMiddleware(tokens *TokenManager, logger *zap.Logger, observer GateObserver) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, logger: logger, observer: observer}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, reason := bearerToken(c.Get(fiber.HeaderAuthorization))
	if reason != "" {
		return m.reject(c, reason, nil)
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		return m.reject(c, reasonFor(err), err)
	}

	m.observe(true, "")
	c.Locals(claimsKey, claims)
	c.SetUserContext(WithClaims(c.UserContext(), claims))
	return c.Next()
}

func (m *AuthMiddleware) reject(c *fiber.Ctx, reason string, cause error) error {
	m.observe(false, reason)
	m.logger.Debug("request rejected by auth gate",
		zap.String("reason", reason),
		zap.String("path", c.Path()),
		zap.NamedError("cause", cause))
	return ErrUnauthenticated.WithCause(cause)
}

func (m *AuthMiddleware) observe(admitted bool, reason string) {
	if m.observer != nil {
		m.observer.ObserveGate(admitted, reason)
	}
}

// bearerToken extracts <token> from "Bearer <token>". A non-empty reason means rejection.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", ReasonMissingHeader
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", ReasonBadScheme
	}
	return token, ""
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrTokenBadSignature):
		return ReasonBadSignature
	case errors.Is(err, ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, ErrTokenNotYetValid):
		return ReasonNotYetValid
	default:
		return ReasonMalformed
	}
}

// ClaimsFromContext retrieves the verified claims attached by the gate.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

// ClaimsFromCtx retrieves claims stored by WithClaims.
func ClaimsFromCtx(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*Claims)
	return claims, ok && claims != nil
}
