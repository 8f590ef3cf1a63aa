// Package account implements sign-in, registration and sign-out against the
// event API and keeps the persisted session in step with the outcome.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/remote"
)

// MinPasswordLength matches the server's registration rule.
const MinPasswordLength = 6

var (
	ErrMissingFields    = errors.New("all fields are required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	ErrLoginFailed      = errors.New("login failed")
	ErrRegisterFailed   = errors.New("registration failed")
	ErrNotSignedIn      = errors.New("not signed in")
)

// Remote is the subset of the API client used for account calls.
type Remote interface {
	Login(ctx context.Context, req model.LoginRequest) (*remote.Response, error)
	Register(ctx context.Context, req model.RegisterRequest) (*remote.Response, error)
	Logout(ctx context.Context) (*remote.Response, error)
}

// Sessions persists the signed-in session.
type Sessions interface {
	Save(sess model.Session) error
	Invalidate() error
	IsAuthenticated() bool
	Profile() (model.User, bool)
}

type Service struct {
	remote   Remote
	sessions Sessions
}

func NewService(r Remote, sessions Sessions) *Service {
	return &Service{remote: r, sessions: sessions}
}

// Login signs in and stores the returned session.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.User{}, ErrMissingFields
	}

	resp, err := s.remote.Login(ctx, model.LoginRequest{Email: email, Password: password})
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	return s.establish(resp, ErrLoginFailed)
}

// Register creates an account and signs in with the returned session.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRegistration(req); err != nil {
		return model.User{}, err
	}

	resp, err := s.remote.Register(ctx, req)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %w", ErrRegisterFailed, err)
	}
	return s.establish(resp, ErrRegisterFailed)
}

func validateRegistration(req model.RegisterRequest) error {
	if req.Name == "" || req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return ErrMissingFields
	}
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(req.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func (s *Service) establish(resp *remote.Response, failed error) (model.User, error) {
	if !resp.OK() {
		if resp.Body.Error != "" {
			return model.User{}, fmt.Errorf("%w: %s", failed, resp.Body.Error)
		}
		return model.User{}, fmt.Errorf("%w: status %d", failed, resp.Status)
	}
	if resp.Body.Token == "" || !resp.Body.User.Valid() {
		return model.User{}, fmt.Errorf("%w: response carried no session", failed)
	}

	user := *resp.Body.User
	sess := model.Session{Token: resp.Body.Token, User: user, Authenticated: true}
	if err := s.sessions.Save(sess); err != nil {
		return model.User{}, fmt.Errorf("saving session: %w", err)
	}

	log.WithField("user_id", user.ID).Info("signed in")
	return user, nil
}

// Logout tells the server the token is no longer in use and clears the local
// session regardless of the server's answer.
func (s *Service) Logout(ctx context.Context) error {
	resp, err := s.remote.Logout(ctx)
	switch {
	case err != nil:
		log.WithError(err).Warn("remote logout failed, clearing local session anyway")
	case !resp.OK():
		log.WithField("status", resp.Status).Warn("remote logout rejected, clearing local session anyway")
	}

	if err := s.sessions.Invalidate(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Whoami returns the profile of the signed-in user.
func (s *Service) Whoami() (model.User, error) {
	if !s.sessions.IsAuthenticated() {
		return model.User{}, ErrNotSignedIn
	}
	user, ok := s.sessions.Profile()
	if !ok {
		return model.User{}, ErrNotSignedIn
	}
	return user, nil
}
