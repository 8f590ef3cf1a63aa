package account

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/remote"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/session"
)

type stubRemote struct {
	resp       *remote.Response
	err        error
	calls      int
	lastLogin  model.LoginRequest
	lastSignup model.RegisterRequest
}

func (s *stubRemote) Login(_ context.Context, req model.LoginRequest) (*remote.Response, error) {
	s.calls++
	s.lastLogin = req
	return s.resp, s.err
}

func (s *stubRemote) Register(_ context.Context, req model.RegisterRequest) (*remote.Response, error) {
	s.calls++
	s.lastSignup = req
	return s.resp, s.err
}

func (s *stubRemote) Logout(context.Context) (*remote.Response, error) {
	s.calls++
	return s.resp, s.err
}

func openStore(t *testing.T) *session.TokenStore {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sessionResponse(status int) *remote.Response {
	return &remote.Response{Status: status, Body: model.Envelope{
		Token: "tok",
		User:  &model.User{ID: "u1", Name: "Ada", Email: "ada@example.com"},
	}}
}

func TestLogin_SavesSession(t *testing.T) {
	store := openStore(t)
	r := &stubRemote{resp: sessionResponse(http.StatusOK)}
	svc := NewService(r, store)

	user, err := svc.Login(context.Background(), " ada@example.com ", "secret")

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "ada@example.com", r.lastLogin.Email)
	assert.True(t, store.IsAuthenticated())
	tok, ok := store.Token()
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		resp    *remote.Response
		err     error
		wantMsg string
	}{
		{
			name:    "server error message",
			resp:    &remote.Response{Status: http.StatusBadRequest, Body: model.Envelope{Error: "Invalid email or password"}},
			wantMsg: "Invalid email or password",
		},
		{
			name:    "bare status",
			resp:    &remote.Response{Status: http.StatusInternalServerError},
			wantMsg: "status 500",
		},
		{
			name:    "success without token",
			resp:    &remote.Response{Status: http.StatusOK, Body: model.Envelope{User: &model.User{ID: "u", Email: "e"}}},
			wantMsg: "no session",
		},
		{
			name:    "transport",
			err:     &remote.TransportError{Op: "login", Err: errors.New("refused")},
			wantMsg: "refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := openStore(t)
			svc := NewService(&stubRemote{resp: tt.resp, err: tt.err}, store)

			_, err := svc.Login(context.Background(), "ada@example.com", "secret")

			require.ErrorIs(t, err, ErrLoginFailed)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.False(t, store.IsAuthenticated())
		})
	}
}

func TestLogin_MissingFieldsSkipsNetwork(t *testing.T) {
	r := &stubRemote{}
	_, err := NewService(r, openStore(t)).Login(context.Background(), "", "secret")

	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Zero(t, r.calls)
}

func TestRegister_Validation(t *testing.T) {
	valid := model.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret", ConfirmPassword: "secret"}

	tests := []struct {
		name   string
		mutate func(*model.RegisterRequest)
		want   error
	}{
		{"missing name", func(r *model.RegisterRequest) { r.Name = "  " }, ErrMissingFields},
		{"missing confirm", func(r *model.RegisterRequest) { r.ConfirmPassword = "" }, ErrMissingFields},
		{"mismatch", func(r *model.RegisterRequest) { r.ConfirmPassword = "secreT" }, ErrPasswordMismatch},
		{"too short", func(r *model.RegisterRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			r := &stubRemote{}

			_, err := NewService(r, openStore(t)).Register(context.Background(), req)

			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, r.calls)
		})
	}
}

func TestRegister_SignsIn(t *testing.T) {
	store := openStore(t)
	r := &stubRemote{resp: sessionResponse(http.StatusCreated)}

	user, err := NewService(r, store).Register(context.Background(), model.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "secret", ConfirmPassword: "secret",
	})

	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "secret", r.lastSignup.ConfirmPassword)
	assert.True(t, store.IsAuthenticated())
}

func TestRegister_ServerRejection(t *testing.T) {
	r := &stubRemote{resp: &remote.Response{Status: http.StatusBadRequest, Body: model.Envelope{Error: "User with this email already exists"}}}

	_, err := NewService(r, openStore(t)).Register(context.Background(), model.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "secret", ConfirmPassword: "secret",
	})

	require.ErrorIs(t, err, ErrRegisterFailed)
	assert.Contains(t, err.Error(), "already exists")
}

func TestLogout_ClearsSessionEvenWhenRemoteFails(t *testing.T) {
	for _, r := range []*stubRemote{
		{resp: &remote.Response{Status: http.StatusOK}},
		{resp: &remote.Response{Status: http.StatusUnauthorized}},
		{err: &remote.TransportError{Op: "logout", Err: errors.New("down")}},
	} {
		store := openStore(t)
		require.NoError(t, store.Save(model.Session{
			Token: "tok", User: model.User{ID: "u1", Email: "ada@example.com"}, Authenticated: true,
		}))

		require.NoError(t, NewService(r, store).Logout(context.Background()))

		assert.Equal(t, 1, r.calls)
		assert.False(t, store.IsAuthenticated())
		_, ok := store.Token()
		assert.False(t, ok)
	}
}

func TestWhoami(t *testing.T) {
	store := openStore(t)
	svc := NewService(&stubRemote{}, store)

	_, err := svc.Whoami()
	assert.ErrorIs(t, err, ErrNotSignedIn)

	require.NoError(t, store.Save(model.Session{
		Token: "tok", User: model.User{ID: "u1", Email: "ada@example.com"}, Authenticated: true,
	}))
	user, err := svc.Whoami()
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}
