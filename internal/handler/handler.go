// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/repository"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/service"
)

// EventService is the business layer behind the event routes.
type EventService interface {
	CreateEvent(ctx context.Context, req model.CreateEventRequest, owner *model.User) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListOwnedEvents(ctx context.Context, owner *model.User) ([]model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	RSVP(ctx context.Context, eventID string, details model.RSVPDetails) (*model.Event, error)
	ListRSVPs(ctx context.Context, eventID string) ([]model.RSVP, error)
}

// Authenticator resolves bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// AuthService is the business layer behind the auth routes.
type AuthService interface {
	Authenticator
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.User, string, error)
	Logout(ctx context.Context, token string) error
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps domain errors onto HTTP statuses. fallback is the
// message used for unexpected failures.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "Invalid email or password")
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided or are invalid")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Event not found")
	case errors.Is(err, repository.ErrEventFull):
		writeError(w, http.StatusConflict, "Event is fully booked")
	case errors.Is(err, repository.ErrAlreadyRSVPd):
		writeError(w, http.StatusConflict, "You have already RSVP'd to this event")
	case errors.Is(err, repository.ErrUnavailable):
		log.WithError(err).Error("database unavailable")
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again later.")
	default:
		log.WithError(err).Error(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// eventList always serialises events as an array, never null or absent.
type eventList struct {
	Events []model.Event `json:"events"`
	Count  int           `json:"count"`
}

func newEventList(events []model.Event) eventList {
	if events == nil {
		events = []model.Event{}
	}
	return eventList{Events: events, Count: len(events)}
}

// rsvpList always serialises rsvps as an array.
type rsvpList struct {
	RSVPs []model.RSVP `json:"rsvps"`
	Count int          `json:"count"`
}

// ─── Event handlers ───────────────────────────────────────────────────────────

// EventHandler holds the HTTP handlers for the event routes.
type EventHandler struct {
	svc EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// ListEvents handles GET /api/events/
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to fetch events")
		return
	}
	writeJSON(w, http.StatusOK, newEventList(events))
}

// CreateEvent handles POST /api/events/
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	owner, _ := UserFrom(r.Context())
	event, err := h.svc.CreateEvent(r.Context(), req, owner)
	if err != nil {
		writeServiceError(w, err, "Failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, model.Envelope{Event: event, Message: "Event created successfully"})
}

// GetEvent handles GET /api/events/{id}/
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to fetch event")
		return
	}
	writeJSON(w, http.StatusOK, model.Envelope{Event: event})
}

// RSVP handles POST /api/events/{id}/rsvp/
func (h *EventHandler) RSVP(w http.ResponseWriter, r *http.Request) {
	var details model.RSVPDetails
	if err := decodeJSON(w, r, &details); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	event, err := h.svc.RSVP(r.Context(), chi.URLParam(r, "id"), details)
	if err != nil {
		writeServiceError(w, err, "Failed to add RSVP")
		return
	}
	writeJSON(w, http.StatusCreated, model.Envelope{Event: event, Message: "RSVP added successfully"})
}

// ListRSVPs handles GET /api/events/{id}/rsvps/
func (h *EventHandler) ListRSVPs(w http.ResponseWriter, r *http.Request) {
	rsvps, err := h.svc.ListRSVPs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to fetch RSVPs")
		return
	}
	if rsvps == nil {
		rsvps = []model.RSVP{}
	}
	writeJSON(w, http.StatusOK, rsvpList{RSVPs: rsvps, Count: len(rsvps)})
}

// MyEvents handles GET /api/events/user/my-events/
func (h *EventHandler) MyEvents(w http.ResponseWriter, r *http.Request) {
	owner, _ := UserFrom(r.Context())
	events, err := h.svc.ListOwnedEvents(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch user events")
		return
	}
	writeJSON(w, http.StatusOK, newEventList(events))
}

// ─── Auth handlers ────────────────────────────────────────────────────────────

// AuthHandler holds the HTTP handlers for the auth routes.
type AuthHandler struct {
	svc AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register handles POST /api/auth/register/
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}
	user, token, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Registration failed. Please try again.")
		return
	}
	writeJSON(w, http.StatusCreated, model.Envelope{Token: token, User: user, Message: "User registered successfully"})
}

// Login handles POST /api/auth/login/
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}
	user, token, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Login failed. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, model.Envelope{Token: token, User: user, Message: "Login successful"})
}

// Logout handles POST /api/auth/logout/
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), bearerToken(r)); err != nil {
		writeServiceError(w, err, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, model.Envelope{Message: "Logout successful"})
}

// Profile handles GET /api/auth/profile/
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	writeJSON(w, http.StatusOK, model.Envelope{User: user})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
