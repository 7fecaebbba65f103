package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spec-kit/event-service/internal/dbx"
	"github.com/spec-kit/event-service/internal/domain"
)

// UserRepository is the credential store. Email uniqueness is enforced by the store itself.
type UserRepository interface {
	// Create inserts user and fills ID and CreatedAt. A taken email yields ErrDuplicate.
	Create(ctx context.Context, user *domain.User) error
	// GetByEmail returns ErrNotFound when no user has email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepository struct {
	db dbx.DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db dbx.DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, role, created_at
        FROM users WHERE email=$1`

	var (
		user domain.User
		role string
	)
	if err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	user.Role = domain.Role(role)
	return &user, nil
}
