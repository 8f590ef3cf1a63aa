package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/repository"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrUnauthorized is returned for a missing, unknown or expired token.
var ErrUnauthorized = errors.New("authentication credentials were not provided or are invalid")

// MinPasswordLength is the shortest password accepted at registration. It
// matches the min tag on model.RegisterRequest.Password.
const MinPasswordLength = 6

// UserRepository is the account persistence the auth service needs.
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, string, error)
}

// TokenRepository stores bearer tokens.
type TokenRepository interface {
	Issue(ctx context.Context, userID string, ttl time.Duration) (string, error)
	Resolve(ctx context.Context, token string) (*model.User, error)
	Revoke(ctx context.Context, token string) error
}

// AuthService handles registration, login and token checks.
type AuthService struct {
	users  UserRepository
	tokens TokenRepository
	ttl    time.Duration
	cost   int
}

// NewAuthService constructs an AuthService issuing tokens valid for ttl.
func NewAuthService(users UserRepository, tokens TokenRepository, ttl time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, ttl: ttl, cost: bcrypt.DefaultCost}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := check(req, registerRules); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Name, req.Email, string(hash))
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", invalid("User with this email already exists")
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(ctx, user.ID, s.ttl)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	log.WithField("user_id", user.ID).Info("user registered")
	return user, token, nil
}

// Login checks credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", invalid("Email and password are required")
	}

	user, hash, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", invalid("User account is disabled")
	}

	token, err := s.tokens.Issue(ctx, user.ID, s.ttl)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return user, nil
}

// Logout revokes token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
