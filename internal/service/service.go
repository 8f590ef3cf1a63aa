// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/repository"
)

// MaxSeatsLimit caps the capacity of a single event. It matches the max tag
// on model.CreateEventRequest.MaxSeats.
const MaxSeatsLimit = 100_000

// ValidationError carries a message safe to return to API clients.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// EventRepository is the persistence the event service needs.
type EventRepository interface {
	Create(ctx context.Context, req model.CreateEventRequest, owner *model.User) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

// RSVPRepository is the persistence for attendance records.
type RSVPRepository interface {
	Add(ctx context.Context, eventID string, details model.RSVPDetails) (*model.RSVP, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.RSVP, error)
}

// EventService orchestrates event-related business operations.
type EventService struct {
	events EventRepository
	rsvps  RSVPRepository
	now    func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventRepository, rsvps RSVPRepository) *EventService {
	return &EventService{events: events, rsvps: rsvps, now: time.Now}
}

// CreateEvent validates the request and delegates to the repository.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest, owner *model.User) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Location = strings.TrimSpace(req.Location)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if req.MaxSeats == 0 {
		req.MaxSeats = model.DefaultMaxSeats
	}

	if err := validateEvent(req); err != nil {
		return nil, err
	}

	event, err := s.events.Create(ctx, req, owner)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return s.decorate(event), nil
}

func validateEvent(req model.CreateEventRequest) error {
	return check(req, eventRules)
}

// ListEvents returns all events with derived fields filled in.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	for i := range events {
		s.decorate(&events[i])
	}
	return events, nil
}

// ListOwnedEvents returns the events created by owner.
func (s *EventService) ListOwnedEvents(ctx context.Context, owner *model.User) ([]model.Event, error) {
	all, err := s.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(all))
	for _, e := range all {
		if e.CreatedBy != nil && e.CreatedBy.ID == owner.ID {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, invalid("event id is required")
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return s.decorate(event), nil
}

// RSVP validates the attendee and records the response. Capacity and
// duplicates are enforced by the repository under a row lock.
func (s *EventService) RSVP(ctx context.Context, eventID string, details model.RSVPDetails) (*model.Event, error) {
	details.Name = strings.TrimSpace(details.Name)
	details.Email = strings.ToLower(strings.TrimSpace(details.Email))
	if err := check(details, rsvpRules); err != nil {
		return nil, err
	}
	if eventID == "" {
		return nil, invalid("event id is required")
	}

	if _, err := s.rsvps.Add(ctx, eventID, details); err != nil {
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrEventFull) ||
			errors.Is(err, repository.ErrAlreadyRSVPd) {
			return nil, err
		}
		return nil, fmt.Errorf("rsvp to event: %w", err)
	}
	return s.GetEvent(ctx, eventID)
}

// ListRSVPs returns the attendance records of an event.
func (s *EventService) ListRSVPs(ctx context.Context, eventID string) ([]model.RSVP, error) {
	if eventID == "" {
		return nil, invalid("event id is required")
	}
	rsvps, err := s.rsvps.ListByEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("list rsvps: %w", err)
	}
	return rsvps, nil
}

// decorate fills the server-computed fields clients display.
func (s *EventService) decorate(e *model.Event) *model.Event {
	count := e.RSVPCount()
	avail := max(0, e.Seats()-count)
	done := false
	if d, ok := e.Day(); ok {
		today := s.now().UTC().Truncate(24 * time.Hour)
		done = d.Before(today)
	}
	e.ServerRSVPCount = &count
	e.ServerAvailableSeats = &avail
	e.ServerCompleted = &done
	return e
}
