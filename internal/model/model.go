// Package model defines the core domain types shared by the event catalog
// client and the reference API server.
package model

import "time"

// DefaultMaxSeats is the capacity assumed when an event does not carry one.
const DefaultMaxSeats = 50

// DateLayout and TimeLayout are the wire formats of Event.Date and Event.Time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Event represents a single scheduled gathering.
type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Image       string `json:"image,omitempty"`
	MaxSeats    int    `json:"max_seats,omitempty"`
	RSVPs       []RSVP `json:"rsvps,omitempty"`

	// Server-supplied derived values. Nil means "derive locally".
	ServerRSVPCount      *int  `json:"rsvp_count,omitempty"`
	ServerAvailableSeats *int  `json:"available_seats,omitempty"`
	ServerCompleted      *bool `json:"is_completed,omitempty"`

	CreatedBy *User      `json:"created_by,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Seats returns the event capacity, falling back to DefaultMaxSeats.
func (e *Event) Seats() int {
	if e.MaxSeats <= 0 {
		return DefaultMaxSeats
	}
	return e.MaxSeats
}

// RSVPCount prefers the server count over the length of RSVPs.
func (e *Event) RSVPCount() int {
	if e.ServerRSVPCount != nil {
		return *e.ServerRSVPCount
	}
	return len(e.RSVPs)
}

// AvailableSeats returns the number of open seats. It is never negative.
func (e *Event) AvailableSeats() int {
	if e.ServerAvailableSeats != nil {
		return max(0, *e.ServerAvailableSeats)
	}
	return max(0, e.Seats()-e.RSVPCount())
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.AvailableSeats() == 0
}

// IsCompleted reports whether the event is over as of now. The server flag
// wins; otherwise the date is compared as UTC midnight.
func (e *Event) IsCompleted(now time.Time) bool {
	if e.ServerCompleted != nil {
		return *e.ServerCompleted
	}
	d, ok := e.Day()
	if !ok {
		return false
	}
	return d.Before(now)
}

// Day parses Date. ok is false when the date is absent or malformed.
func (e *Event) Day() (time.Time, bool) {
	if e.Date == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// DisplayDate returns the date or "TBD".
func (e *Event) DisplayDate() string {
	if e.Date == "" {
		return "TBD"
	}
	return e.Date
}

// DisplayTime returns the time or "TBD".
func (e *Event) DisplayTime() string {
	if e.Time == "" {
		return "TBD"
	}
	return e.Time
}

// Status is the one-word state shown next to an event.
func (e *Event) Status(now time.Time) string {
	switch {
	case e.IsCompleted(now):
		return "completed"
	case e.IsFull():
		return "full"
	default:
		return "open"
	}
}

// Clone returns a deep copy so cached entries never alias caller memory.
func (e Event) Clone() Event {
	if e.RSVPs != nil {
		e.RSVPs = append([]RSVP(nil), e.RSVPs...)
	}
	if e.CreatedBy != nil {
		u := *e.CreatedBy
		e.CreatedBy = &u
	}
	return e
}

// RSVP is an attendance record attached to an Event.
type RSVP struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// RSVPDetails are the attendee-supplied fields of a new RSVP.
type RSVPDetails struct {
	Name  string `json:"name" validate:"min=2"`
	Email string `json:"email" validate:"required,email"`
}

// User is the profile of an authenticated account.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

// Valid reports whether the profile carries an identifier and an email.
func (u *User) Valid() bool {
	return u != nil && u.ID != "" && u.Email != ""
}

// Session is the persisted authentication state of the current user.
type Session struct {
	Token         string
	User          User
	Authenticated bool
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name        string `json:"name" validate:"min=3"`
	Description string `json:"description" validate:"min=10"`
	Date        string `json:"date" validate:"datetime=2006-01-02"`
	Time        string `json:"time" validate:"datetime=15:04"`
	Location    string `json:"location" validate:"min=3"`
	Image       string `json:"image,omitempty"`
	MaxSeats    int    `json:"max_seats,omitempty" validate:"min=1,max=100000"`
}

// LoginRequest is the payload of POST /api/auth/login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the payload of POST /api/auth/register/.
type RegisterRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// Envelope is the union of every JSON body the API returns. Fields that an
// endpoint does not use stay zero.
type Envelope struct {
	Events  []Event `json:"events,omitempty"`
	Count   *int    `json:"count,omitempty"`
	Event   *Event  `json:"event,omitempty"`
	Message string  `json:"message,omitempty"`
	Error   string  `json:"error,omitempty"`
	Token   string  `json:"token,omitempty"`
	User    *User   `json:"user,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
