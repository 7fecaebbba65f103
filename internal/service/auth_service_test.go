package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/dispatch"
	"github.com/spec-kit/event-service/internal/domain"
)

type authFixture struct {
	svc    *AuthService
	users  *memUsers
	events *recordingDispatcher
	tokens *auth.TokenManager
}

func newAuthFixture(t *testing.T, signupRoles ...string) authFixture {
	t.Helper()
	users := newMemUsers()
	rec := &recordingDispatcher{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(AuthDependencies{
		UserRepo:    users,
		Hasher:      auth.NewHasher(4),
		Tokens:      tokens,
		Dispatcher:  rec,
		SignupRoles: signupRoles,
	})
	return authFixture{svc: svc, users: users, events: rec, tokens: tokens}
}

func annInput() RegisterInput {
	return RegisterInput{Name: "Ann", Email: "ann@x.com", Password: "pw1"}
}

func TestAuthService_RegisterDefaultsRoleAndHashesPassword(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.Register(context.Background(), annInput())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, user.Role)
	assert.NotEmpty(t, user.ID)

	stored := f.users.byEmail["ann@x.com"]
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
	assert.Equal(t, []dispatch.Topic{dispatch.TopicUserRegistered}, f.events.topics())
}

func TestAuthService_RegisterKeepsSuppliedRole(t *testing.T) {
	f := newAuthFixture(t)
	in := annInput()
	in.Role = "instructor"

	user, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInstructor, user.Role)
}

func TestAuthService_RegisterMissingFields(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "  ", Email: "ann@x.com"})
	require.ErrorIs(t, err, ErrInvalidInput)

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Fields, "name")
	assert.Contains(t, inputErr.Fields, "password")
	assert.NotContains(t, inputErr.Fields, "email")
	assert.Empty(t, f.users.byEmail)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, annInput())
	require.NoError(t, err)
	first := f.users.byEmail["ann@x.com"]

	in := annInput()
	in.Password = "other"
	_, err = f.svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, first, f.users.byEmail["ann@x.com"])
}

func TestAuthService_RegisterSignupRoleAllowlist(t *testing.T) {
	f := newAuthFixture(t, "student", "instructor")
	ctx := context.Background()

	in := annInput()
	in.Role = "admin"
	_, err := f.svc.Register(ctx, in)
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Fields, "role")

	_, err = f.svc.Register(ctx, annInput())
	assert.NoError(t, err)
}

func TestAuthService_LoginIssuesVerifiableToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	registered, err := f.svc.Register(ctx, annInput())
	require.NoError(t, err)

	user, issued, err := f.svc.Login(ctx, "ann@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	claims, err := f.tokens.Verify(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{ID: registered.ID, Email: "ann@x.com", Role: domain.RoleStudent}, claims.Identity())
	assert.Contains(t, f.events.topics(), dispatch.TopicUserLoggedIn)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, annInput())
	require.NoError(t, err)

	_, _, wrongPassword := f.svc.Login(ctx, "ann@x.com", "nope")
	_, _, unknownEmail := f.svc.Login(ctx, "bob@x.com", "pw1")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	failed := 0
	for _, topic := range f.events.topics() {
		if topic == dispatch.TopicUserLoginFailed {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
}

func TestAuthService_LoginRequiresFields(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.Login(context.Background(), " ", "pw1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = f.svc.Login(context.Background(), "ann@x.com", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, f.users.lookups)
}

func TestAuthService_LoginStoreFailureIsNotCredentialsError(t *testing.T) {
	f := newAuthFixture(t)
	f.users.failGet = errStoreDown

	_, _, err := f.svc.Login(context.Background(), "ann@x.com", "pw1")
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LoginCorruptStoredHash(t *testing.T) {
	f := newAuthFixture(t)
	f.users.byEmail["ann@x.com"] = domain.User{ID: "u1", Email: "ann@x.com", PasswordHash: "not-a-hash"}

	_, _, err := f.svc.Login(context.Background(), "ann@x.com", "pw1")
	assert.ErrorIs(t, err, auth.ErrHashing)
}
