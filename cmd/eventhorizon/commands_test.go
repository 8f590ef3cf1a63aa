package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/account"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/handler"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/repository"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/service"
)

// fakeAPI backs the real router with in-memory state.
type fakeAPI struct {
	mu        sync.Mutex
	events    []model.Event
	revoked   []string
	rejectAll bool
}

var ada = &model.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}

const goodToken = "tok-1"

func (f *fakeAPI) Authenticate(_ context.Context, token string) (*model.User, error) {
	if token == goodToken && !f.rejectAll {
		return ada, nil
	}
	return nil, service.ErrUnauthorized
}

func (f *fakeAPI) Register(_ context.Context, req model.RegisterRequest) (*model.User, string, error) {
	u := &model.User{ID: "u2", Name: req.Name, Email: req.Email}
	return u, goodToken, nil
}

func (f *fakeAPI) Login(_ context.Context, req model.LoginRequest) (*model.User, string, error) {
	if req.Email != ada.Email || req.Password != "secret" {
		return nil, "", service.ErrInvalidCredentials
	}
	return ada, goodToken, nil
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token)
	return nil
}

func (f *fakeAPI) CreateEvent(_ context.Context, req model.CreateEventRequest, owner *model.User) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev := model.Event{
		ID:          strconv.Itoa(len(f.events) + 1),
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		MaxSeats:    req.MaxSeats,
		CreatedBy:   owner,
	}
	f.events = append(f.events, ev)
	return &ev, nil
}

func (f *fakeAPI) ListEvents(context.Context) ([]model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Event(nil), f.events...), nil
}

func (f *fakeAPI) ListOwnedEvents(ctx context.Context, _ *model.User) ([]model.Event, error) {
	return f.ListEvents(ctx)
}

func (f *fakeAPI) GetEvent(_ context.Context, id string) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAPI) RSVP(ctx context.Context, id string, _ model.RSVPDetails) (*model.Event, error) {
	return f.GetEvent(ctx, id)
}

func (f *fakeAPI) ListRSVPs(ctx context.Context, id string) ([]model.RSVP, error) {
	ev, err := f.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return ev.RSVPs, nil
}

type harness struct {
	api     *fakeAPI
	baseURL string
	config  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(handler.NewRouter(handler.RouterConfig{
		Events:        handler.NewEventHandler(api),
		Auth:          handler.NewAuthHandler(api),
		Authenticator: api,
		AllowedOrigin: "*",
	}))
	t.Cleanup(srv.Close)

	return &harness{
		api:     api,
		baseURL: srv.URL + "/api",
		config:  filepath.Join(t.TempDir(), "config.yaml"),
	}
}

// lockedBuffer is shared with the server's access log, which writes from
// the httptest goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out bytes.Buffer
	errOut := &lockedBuffer{}
	full := append([]string{"--config", h.config, "--base-url", h.baseURL}, args...)
	err := execute(context.Background(), full, strings.NewReader(stdin), &out, errOut)
	return out.String(), errOut.String(), err
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, _, err := h.run(t, "secret\n", "login", "--email", ada.Email)
	require.NoError(t, err)
}

func TestEvents_RequireSession(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{{"events", "list"}, {"events", "export"}, {"shell"}} {
		_, _, err := h.run(t, "", args...)
		assert.ErrorIs(t, err, errNotSignedIn, "%v", args)
	}
}

func TestLogin_WritesDefaultConfigAndSession(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "secret\n", "login", "--email", ada.Email)
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ada <ada@example.com>")

	assert.FileExists(t, h.config)
	assert.FileExists(t, filepath.Join(filepath.Dir(h.config), "session.db"))

	out, _, err = h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada <ada@example.com> (id u1)")
}

func TestLogin_PromptsForEmail(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "ada@example.com\nsecret\n", "login")

	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ada")
}

func TestLogin_BadPassword(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "wrong\n", "login", "--email", ada.Email)

	require.ErrorIs(t, err, account.ErrLoginFailed)
	assert.Contains(t, err.Error(), "Invalid email or password")

	_, _, err = h.run(t, "", "whoami")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestRegister_PasswordMismatchNeverHitsServer(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "secret1\nsecret2\n", "register", "--name", "Bob", "--email", "bob@example.com")

	assert.ErrorIs(t, err, account.ErrPasswordMismatch)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "Bob\nbob@example.com\nsecret\nsecret\n", "register")

	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Bob!")
}

func TestEvents_CreateListShow(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	_, errOut, err := h.run(t, "", "events", "create",
		"--name", "Go Meetup", "--date", "2099-05-01", "--time", "18:30",
		"--location", "Hall B", "--description", "Monthly gophers", "--max-seats", "40")
	require.NoError(t, err)
	assert.Contains(t, errOut, "✓ Event Created!: Event created successfully")

	out, _, err := h.run(t, "", "events", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Go Meetup")
	assert.Contains(t, out, "40/40")
	assert.Contains(t, out, "open")

	out, _, err = h.run(t, "", "events", "list", "--json")
	require.NoError(t, err)
	var events []model.Event
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Hall B", events[0].Location)

	out, _, err = h.run(t, "", "events", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Monthly gophers")
	assert.Contains(t, out, "Host:")

	_, _, err = h.run(t, "", "events", "show", "99")
	assert.ErrorContains(t, err, `no event with id "99"`)
}

func TestEvents_CreateDefaultsSeats(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	_, _, err := h.run(t, "", "events", "create", "--name", "Defaults",
		"--description", "Uses the default capacity", "--date", "2099-01-01", "--time", "09:00", "--location", "Hall A")
	require.NoError(t, err)

	require.Len(t, h.api.events, 1)
	assert.Equal(t, model.DefaultMaxSeats, h.api.events[0].MaxSeats)
}

func TestEvents_CreateRequiresAllFields(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	_, _, err := h.run(t, "", "events", "create", "--name", "Go Meetup", "--date", "2099-05-01")

	require.Error(t, err)
	for _, flag := range []string{"description", "time", "location"} {
		assert.Contains(t, err.Error(), flag)
	}
	assert.Empty(t, h.api.events)
}

func TestEvents_ListEmpty(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	out, _, err := h.run(t, "", "events", "list")

	require.NoError(t, err)
	assert.Equal(t, "No events.\n", out)
}

func TestEvents_Export(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	_, _, err := h.run(t, "", "events", "create", "--name", "Go Meetup", "--date", "2099-05-01", "--time", "18:30",
		"--location", "Hall B", "--description", "Monthly gophers")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "events.ics")
	_, _, err = h.run(t, "", "events", "export", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")
	assert.Contains(t, string(data), "SUMMARY:Go Meetup")

	out, _, err := h.run(t, "", "events", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VEVENT")
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	out, _, err := h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")
	assert.Equal(t, []string{goodToken}, h.api.revoked)

	_, _, err = h.run(t, "", "events", "list")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestEvents_WatchRejectsBadSchedule(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	_, _, err := h.run(t, "", "events", "watch", "--schedule", "not a schedule")

	assert.ErrorContains(t, err, "invalid schedule")
}

func TestRejectedSessionIsKeptUntilLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.rejectAll = true

	_, errOut, err := h.run(t, "", "events", "list")
	assert.ErrorIs(t, err, errFetchFailed)
	assert.Contains(t, errOut, "✗ Failed to Load Events")

	out, _, err := h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")

	out, _, err = h.run(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "log in again")
	assert.NotContains(t, out, "rejects it")
}
