package auth

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/event-service/internal/domain"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

type recordingObserver struct {
	admitted int
	reasons  []string
}

func (o *recordingObserver) ObserveGate(admitted bool, reason string) {
	if admitted {
		o.admitted++
		return
	}
	o.reasons = append(o.reasons, reason)
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var de *apperrors.DomainError
			if errors.As(err, &de) {
				return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code, "message": de.Message}})
			}
			return c.SendStatus(http.StatusInternalServerError)
		},
	})
}

func newGateApp(tm *TokenManager, obs GateObserver, guards ...fiber.Handler) *fiber.App {
	app := newTestApp()
	gate := NewAuthMiddleware(tm, nil, obs)
	handlers := append([]fiber.Handler{gate.Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return c.SendStatus(http.StatusTeapot)
		}
		ctxClaims, ok := ClaimsFromCtx(c.UserContext())
		if !ok || ctxClaims != claims {
			return c.SendStatus(http.StatusTeapot)
		}
		return c.SendString(claims.Email)
	})
	app.Get("/protected", handlers...)
	return app
}

func doGet(t *testing.T, app *fiber.App, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware_AdmitsValidToken(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	obs := &recordingObserver{}
	app := newGateApp(tm, obs)

	issued, err := tm.Issue(ann)
	require.NoError(t, err)

	status, body := doGet(t, app, "Bearer "+issued.Token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ann@x.com", body)
	assert.Equal(t, 1, obs.admitted)

	status, _ = doGet(t, app, "bearer "+issued.Token)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthMiddleware_RejectionsAreUniform(t *testing.T) {
	clock := newClock()
	tm := NewTokenManager("secret", time.Minute, WithClock(clock.Now))
	obs := &recordingObserver{}
	app := newGateApp(tm, obs)

	valid, err := tm.Issue(ann)
	require.NoError(t, err)
	foreign, err := NewTokenManager("other-secret", time.Minute, WithClock(clock.Now)).Issue(ann)
	require.NoError(t, err)
	expiredTM := NewTokenManager("secret", time.Minute, WithClock(func() time.Time { return clock.Now().Add(-time.Hour) }))
	expired, err := expiredTM.Issue(ann)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		reason string
	}{
		{"missing header", "", ReasonMissingHeader},
		{"basic scheme", "Basic dXNlcjpwYXNz", ReasonBadScheme},
		{"bearer without token", "Bearer", ReasonBadScheme},
		{"bearer empty token", "Bearer ", ReasonBadScheme},
		{"extra segment", "Bearer " + valid.Token + " extra", ReasonBadScheme},
		{"garbage token", "Bearer not-a-token", ReasonMalformed},
		{"foreign secret", "Bearer " + foreign.Token, ReasonBadSignature},
		{"expired", "Bearer " + expired.Token, ReasonExpired},
	}

	var firstBody string
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doGet(t, app, tc.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.JSONEq(t, `{"error":{"code":"UNAUTHORIZED","message":"unauthenticated"}}`, body)
			if i == 0 {
				firstBody = body
			}
			assert.Equal(t, firstBody, body)
			require.NotEmpty(t, obs.reasons)
			assert.Equal(t, tc.reason, obs.reasons[len(obs.reasons)-1])
		})
	}
	assert.Zero(t, obs.admitted)
}

func TestRequireRole(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	app := newGateApp(tm, nil, RequireRole(domain.RoleAdmin, domain.RoleInstructor))

	token := func(role domain.Role) string {
		id := ann
		id.Role = role
		issued, err := tm.Issue(id)
		require.NoError(t, err)
		return "Bearer " + issued.Token
	}

	status, _ := doGet(t, app, token(domain.RoleAdmin))
	assert.Equal(t, http.StatusOK, status)

	status, body := doGet(t, app, token(domain.RoleStudent))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body, "FORBIDDEN")

	status, _ = doGet(t, app, token(domain.Role("root")))
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doGet(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRequireAuthenticated_AnyRole(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	app := newGateApp(tm, nil, RequireAuthenticated())

	id := ann
	id.Role = domain.Role("custom-tag")
	issued, err := tm.Issue(id)
	require.NoError(t, err)

	status, _ := doGet(t, app, "Bearer "+issued.Token)
	assert.Equal(t, http.StatusOK, status)
}

func TestRequireRole_WithoutGate(t *testing.T) {
	app := newTestApp()
	app.Get("/", RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestParseRoles_FailsClosedOnUnknownTags(t *testing.T) {
	assert.Equal(t, []domain.Role{domain.RoleAdmin, domain.RoleUnknown}, ParseRoles([]string{"admin", "wizard"}))
	assert.Empty(t, ParseRoles(nil))
}
