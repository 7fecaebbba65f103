package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/event-service/internal/domain"
)

// DefaultTokenTTL applies when a TokenManager is built with a non-positive ttl.
const DefaultTokenTTL = time.Hour

// signingMethod is the versioned algorithm tag written to and required in every token header.
var signingMethod = jwt.SigningMethodHS256

// ErrToken is matched by every verification failure.
var ErrToken = errors.New("invalid token")

// Verification failure reasons. Each wraps ErrToken.
var (
	ErrTokenMalformed    = fmt.Errorf("%w: malformed", ErrToken)
	ErrTokenBadSignature = fmt.Errorf("%w: bad signature", ErrToken)
	ErrTokenExpired      = fmt.Errorf("%w: expired", ErrToken)
	ErrTokenNotYetValid  = fmt.Errorf("%w: not yet valid", ErrToken)
)

// Identity is the set of facts a token asserts about its bearer.
type Identity struct {
	ID    string
	Email string
	Role  domain.Role
}

// Claims describes the JWT payload.
type Claims struct {
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Validate is called by the jwt parser after the registered claims pass.
func (c *Claims) Validate() error {
	if c.UserID == "" || c.Email == "" {
		return errors.New("identity claims missing")
	}
	if c.IssuedAt == nil {
		return errors.New("iat claim missing")
	}
	return nil
}

// Identity returns the identity asserted by the claims.
func (c *Claims) Identity() Identity {
	return Identity{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// IssuedToken is a signed artifact plus its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenManager issues and verifies HS256 tokens with a single shared secret.
// The secret is fixed at construction; the manager is safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customises a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	tm := &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	tm.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	return tm
}

// TTL returns the lifetime of issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue builds and signs a token for id.
func (tm *TokenManager) Issue(id Identity) (IssuedToken, error) {
	if id.ID == "" || id.Email == "" {
		return IssuedToken{}, errors.New("issue token: id and email required")
	}
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		UserID: id.ID,
		Email:  id.Email,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(signingMethod, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return IssuedToken{Token: tokenString, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks structure, signature and validity window, in that order, and returns the
// claims unchanged. Every error matches ErrToken.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := tm.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func classify(err error) error {
	var reason error
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		reason = ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		reason = ErrTokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		reason = ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued), errors.Is(err, jwt.ErrTokenNotValidYet):
		reason = ErrTokenNotYetValid
	default:
		reason = ErrTokenMalformed
	}
	return fmt.Errorf("%w (%v)", reason, err)
}
