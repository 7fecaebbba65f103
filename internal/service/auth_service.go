package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/dispatch"
	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/repository"
)

// dummyPassword is hashed once at startup so unknown emails still pay for a bcrypt compare.
const dummyPassword = "dummy-password-for-timing"

// RegisterInput describes a registration request.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate checks required fields after trimming whitespace.
func (in RegisterInput) Validate() error {
	trimmed := struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}{strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), strings.TrimSpace(in.Password)}

	return validation.ValidateStruct(&trimmed,
		validation.Field(&trimmed.Name, validation.Required),
		validation.Field(&trimmed.Email, validation.Required),
		validation.Field(&trimmed.Password, validation.Required),
	)
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users       repository.UserRepository
	hasher      *auth.Hasher
	tokens      *auth.TokenManager
	dispatcher  dispatch.Dispatcher
	logger      *zap.Logger
	signupRoles map[string]struct{}
	dummyHash   string
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     *auth.Hasher
	Tokens     *auth.TokenManager
	Dispatcher dispatch.Dispatcher
	Logger     *zap.Logger
	// SignupRoles restricts self-assigned roles. Empty accepts any tag.
	SignupRoles []string
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
	if s.hasher == nil {
		s.hasher = auth.NewHasher(auth.DefaultBcryptCost)
	}
	if s.dispatcher == nil {
		s.dispatcher = dispatch.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if len(deps.SignupRoles) > 0 {
		s.signupRoles = make(map[string]struct{}, len(deps.SignupRoles))
		for _, r := range deps.SignupRoles {
			s.signupRoles[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
		}
	}
	if hash, err := s.hasher.Hash(dummyPassword); err == nil {
		s.dummyHash = hash
	} else {
		s.logger.Warn("unable to prepare dummy password hash", zap.Error(err))
	}
	return s
}

// TokenManager exposes the issuer shared with the auth gate.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Register creates a new identity record. The plaintext password is never stored.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := fromValidation(in.Validate()); err != nil {
		return nil, err
	}

	role := domain.Role(strings.TrimSpace(in.Role))
	if role == "" {
		role = domain.DefaultRole
	}
	if s.signupRoles != nil {
		if _, ok := s.signupRoles[strings.ToLower(string(role))]; !ok {
			return nil, &InputError{Message: "validation failed", Fields: map[string]string{"role": "is not allowed"}}
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.publish(ctx, dispatch.TopicUserRegistered, userActor(user), dispatch.UserPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	return user, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, auth.IssuedToken, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, auth.IssuedToken{}, invalidInput("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, auth.IssuedToken{}, fmt.Errorf("login lookup: %w", err)
		}
		s.burnCompare(password)
		s.loginFailed(ctx, email)
		return nil, auth.IssuedToken{}, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, auth.IssuedToken{}, fmt.Errorf("login verify: %w", err)
	}
	if !ok {
		s.loginFailed(ctx, email)
		return nil, auth.IssuedToken{}, ErrInvalidCredentials
	}

	issued, err := s.tokens.Issue(auth.Identity{ID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, auth.IssuedToken{}, err
	}

	s.publish(ctx, dispatch.TopicUserLoggedIn, userActor(user), dispatch.UserPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	return user, issued, nil
}

func (s *AuthService) burnCompare(password string) {
	if s.dummyHash == "" {
		return
	}
	_, _ = s.hasher.Verify(password, s.dummyHash)
}

func (s *AuthService) loginFailed(ctx context.Context, email string) {
	s.publish(ctx, dispatch.TopicUserLoginFailed, dispatch.Actor{}, dispatch.UserPayload{Email: email})
}

func (s *AuthService) publish(ctx context.Context, topic dispatch.Topic, actor dispatch.Actor, payload interface{}) {
	if err := s.dispatcher.Publish(ctx, dispatch.NewMessage(topic, actor, payload)); err != nil {
		s.logger.Warn("notification handler failed", zap.String("topic", string(topic)), zap.Error(err))
	}
}

func userActor(u *domain.User) dispatch.Actor {
	return dispatch.Actor{UserID: u.ID, Email: u.Email, Role: string(u.Role)}
}
