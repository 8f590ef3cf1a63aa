// Package catalog owns the in-memory event catalog and mediates every read
// and write against the remote event API.
//
// FetchAll and Create are server-backed. Update, Remove and AddRSVP only
// touch the local cache: they are session-scoped drafts and are discarded by
// the next successful FetchAll.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/notify"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/remote"
)

// Remote is the subset of the API client the store needs.
type Remote interface {
	ListEvents(ctx context.Context) (*remote.Response, error)
	CreateEvent(ctx context.Context, req model.CreateEventRequest) (*remote.Response, error)
}

// Gate answers whether a valid session exists.
type Gate interface {
	IsAuthenticated() bool
}

// Store is the event catalog. Construct one per application with New and
// hand it to every consumer.
type Store struct {
	remote Remote
	gate   Gate
	sink   notify.Sink
	now    func() time.Time
	newID  func() string

	mu     sync.RWMutex
	events []model.Event

	inflight atomic.Int32
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides time.Now, used for RSVP timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how local RSVP ids are generated.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New constructs a Store with an empty catalog.
func New(r Remote, gate Gate, sink notify.Sink, opts ...Option) *Store {
	if sink == nil {
		sink = notify.Discard
	}
	s := &Store{
		remote: r,
		gate:   gate,
		sink:   sink,
		now:    time.Now,
		newID:  newRSVPID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newRSVPID returns a time-ordered UUIDv7.
func newRSVPID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Loading reports whether any network operation is in flight.
func (s *Store) Loading() bool {
	return s.inflight.Load() > 0
}

func (s *Store) begin() func() {
	s.inflight.Add(1)
	return func() { s.inflight.Add(-1) }
}

// Events returns an ordered snapshot of the catalog.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, len(s.events))
	for i, e := range s.events {
		out[i] = e.Clone()
	}
	return out
}

// FetchAll replaces the catalog with the server's list. It does nothing when
// no session is present and leaves the catalog untouched on any failure.
// It reports whether the catalog was refreshed.
func (s *Store) FetchAll(ctx context.Context) bool {
	if !s.gate.IsAuthenticated() {
		log.Debug("not authenticated, skipping event fetch")
		return false
	}

	done := s.begin()
	defer done()

	resp, err := s.remote.ListEvents(ctx)
	if err := classify(resp, err); err != nil {
		s.reportFailure("fetch", err, resp, fetchText)
		return false
	}

	events := dedupe(resp.Body.Events)

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()

	log.WithField("count", len(events)).Info("event catalog refreshed")
	return true
}

// Create submits a new event and appends the server's copy to the catalog.
// It returns true only when the event was persisted and cached.
func (s *Store) Create(ctx context.Context, req model.CreateEventRequest) bool {
	if !s.gate.IsAuthenticated() {
		log.WithError(ErrAuthRequired).Warn("create rejected")
		s.sink.Notify(notify.KindError, "Authentication Required", "Please login to create events.")
		return false
	}
	if req.MaxSeats <= 0 {
		req.MaxSeats = model.DefaultMaxSeats
	}

	done := s.begin()
	defer done()

	resp, err := s.remote.CreateEvent(ctx, req)
	if err := classify(resp, err); err != nil {
		s.reportFailure("create", err, resp, createText)
		return false
	}
	if resp.Body.Event == nil || resp.Body.Event.ID == "" {
		log.WithField("status", resp.Status).Error("create response carried no event")
		s.sink.Notify(notify.KindError, createText.failedTitle, "The server did not return the created event.")
		return false
	}

	ev := resp.Body.Event.Clone()
	s.upsert(ev)

	msg := resp.Body.Message
	if msg == "" {
		msg = fmt.Sprintf("%q has been successfully created.", req.Name)
	}
	log.WithField("event_id", ev.ID).Info("event created")
	s.sink.Notify(notify.KindSuccess, "Event Created!", msg)
	return true
}

// Update replaces the cached entry with the same id. It always reports
// success, including when no entry matched.
func (s *Store) Update(ev model.Event) {
	s.mu.Lock()
	for i := range s.events {
		if s.events[i].ID == ev.ID {
			s.events[i] = ev.Clone()
			break
		}
	}
	s.mu.Unlock()

	s.sink.Notify(notify.KindSuccess, "Event Updated!", fmt.Sprintf("%q has been successfully updated.", ev.Name))
}

// Remove drops the entry with id. It reports whether an entry was removed
// and only then emits a notification.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	var (
		removed model.Event
		found   bool
	)
	kept := s.events[:0:0]
	for _, e := range s.events {
		if e.ID == id && !found {
			removed, found = e, true
			continue
		}
		kept = append(kept, e)
	}
	if found {
		s.events = kept
	}
	s.mu.Unlock()

	if found {
		s.sink.Notify(notify.KindSuccess, "Event Deleted", fmt.Sprintf("%q has been removed.", removed.Name))
	}
	return found
}

// Lookup returns the cached event with id.
func (s *Store) Lookup(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.events {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return model.Event{}, false
}

// AddRSVP appends an RSVP to the event with id. Capacity is not checked.
// Unknown ids are a silent no-op.
func (s *Store) AddRSVP(id string, details model.RSVPDetails) bool {
	now := s.now().UTC()

	s.mu.Lock()
	idx := -1
	for i := range s.events {
		if s.events[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	ev := s.events[idx].Clone()
	ev.RSVPs = append(ev.RSVPs, model.RSVP{
		ID:        s.newID(),
		Name:      details.Name,
		Email:     details.Email,
		CreatedAt: &now,
	})
	// Keep server-supplied counters in step with the local append.
	if ev.ServerRSVPCount != nil {
		n := *ev.ServerRSVPCount + 1
		ev.ServerRSVPCount = &n
	}
	if ev.ServerAvailableSeats != nil {
		n := max(0, *ev.ServerAvailableSeats-1)
		ev.ServerAvailableSeats = &n
	}
	s.events[idx] = ev
	s.mu.Unlock()

	s.sink.Notify(notify.KindSuccess, "RSVP Confirmed!", "Your registration for the event is confirmed.")
	return true
}

// upsert appends ev, or replaces an entry that already carries its id.
func (s *Store) upsert(ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID == ev.ID {
			s.events[i] = ev
			return
		}
	}
	s.events = append(s.events, ev)
}

func dedupe(in []model.Event) []model.Event {
	out := make([]model.Event, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, e := range in {
		if _, ok := seen[e.ID]; ok {
			log.WithField("event_id", e.ID).Warn("duplicate event id in response, keeping first")
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e.Clone())
	}
	return out
}

type failureText struct {
	failedTitle   string
	failedDefault string
	unavailable   string
	network       string
}

var fetchText = failureText{
	failedTitle:   "Failed to Load Events",
	failedDefault: "Failed to fetch events. Please try again.",
	unavailable:   "Unable to reach the event service. Please try again later.",
	network:       "Unable to fetch events. Please check your connection.",
}

var createText = failureText{
	failedTitle:   "Event Creation Failed",
	failedDefault: "Failed to create event. Please try again.",
	unavailable:   "Unable to reach the event service. Your event was not saved.",
	network:       "Unable to create event. Please check your connection.",
}

func (s *Store) reportFailure(op string, err error, resp *remote.Response, txt failureText) {
	log.WithError(err).WithField("op", op).Error("event api call failed")

	switch {
	case errors.Is(err, ErrServiceUnavailable):
		s.sink.Notify(notify.KindError, "Service Unavailable", txt.unavailable)
	case errors.Is(err, ErrNetwork):
		s.sink.Notify(notify.KindError, "Network Error", txt.network)
	default:
		msg := txt.failedDefault
		if resp != nil && resp.Body.Error != "" {
			msg = resp.Body.Error
		}
		s.sink.Notify(notify.KindError, txt.failedTitle, msg)
	}
}
