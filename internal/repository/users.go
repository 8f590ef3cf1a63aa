package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
)

// UserRepository handles persistence for accounts.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts an account. It returns ErrEmailTaken when the email exists.
func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	u := &model.User{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    email,
		IsActive: true,
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, is_active, is_admin, created_at)
		 VALUES ($1, $2, $3, $4, TRUE, FALSE, $5)`,
		u.ID, u.Name, u.Email, passwordHash, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, wrap("insert user", err)
	}
	return u, nil
}

// GetByEmail returns the account and its password hash, or ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, string, error) {
	var (
		u    model.User
		hash string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, is_active, is_admin, password_hash
		 FROM users WHERE lower(email) = lower($1)`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.IsActive, &u.IsAdmin, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", wrap("get user", err)
	}
	return &u, hash, nil
}

// TokenRepository stores opaque bearer tokens.
type TokenRepository struct {
	db *pgxpool.Pool
}

// NewTokenRepository constructs a TokenRepository.
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{db: db}
}

// Issue creates a token for userID that expires after ttl.
func (r *TokenRepository) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	_, err := r.db.Exec(ctx,
		`INSERT INTO auth_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, time.Now().UTC().Add(ttl),
	)
	if err != nil {
		return "", wrap("insert token", err)
	}
	return token, nil
}

// Resolve returns the active user holding token, or ErrNotFound when the
// token is unknown, expired or belongs to a disabled account.
func (r *TokenRepository) Resolve(ctx context.Context, token string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		`SELECT u.id, u.name, u.email, u.is_active, u.is_admin
		 FROM auth_tokens t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.token = $1 AND t.expires_at > now() AND u.is_active`,
		token,
	).Scan(&u.ID, &u.Name, &u.Email, &u.IsActive, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("resolve token", err)
	}
	return &u, nil
}

// Revoke deletes token. Unknown tokens are not an error.
func (r *TokenRepository) Revoke(ctx context.Context, token string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM auth_tokens WHERE token = $1`, token); err != nil {
		return wrap("revoke token", err)
	}
	return nil
}

// PurgeExpired removes tokens past their expiry and reports how many.
func (r *TokenRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, wrap("purge tokens", err)
	}
	return tag.RowsAffected(), nil
}
