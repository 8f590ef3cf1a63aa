package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func rsvps(n int) []RSVP {
	out := make([]RSVP, n)
	for i := range out {
		out[i] = RSVP{Name: "guest", Email: "guest@example.com"}
	}
	return out
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestEvent_AvailableSeats(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  int
	}{
		{name: "derived from rsvps", event: Event{MaxSeats: 10, RSVPs: rsvps(3)}, want: 7},
		{name: "overbooked clamps to zero", event: Event{MaxSeats: 5, RSVPs: rsvps(7)}, want: 0},
		{name: "default capacity", event: Event{RSVPs: rsvps(1)}, want: DefaultMaxSeats - 1},
		{name: "server count wins over rsvps", event: Event{MaxSeats: 10, RSVPs: rsvps(1), ServerRSVPCount: intPtr(4)}, want: 6},
		{name: "server available seats wins", event: Event{MaxSeats: 10, ServerAvailableSeats: intPtr(2)}, want: 2},
		{name: "negative server value clamps", event: Event{ServerAvailableSeats: intPtr(-3)}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.AvailableSeats())
		})
	}
}

func TestEvent_IsCompleted(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{name: "past date", event: Event{Date: "2026-06-14"}, want: true},
		{name: "future date", event: Event{Date: "2026-06-16"}, want: false},
		{name: "absent date", event: Event{}, want: false},
		{name: "malformed date", event: Event{Date: "next week"}, want: false},
		{name: "server flag wins", event: Event{Date: "2020-01-01", ServerCompleted: boolPtr(false)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.IsCompleted(now))
		})
	}
}

func TestEvent_Status(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	full := Event{Date: "2026-07-01", MaxSeats: 1, RSVPs: rsvps(1)}
	open := Event{Date: "2026-07-01", MaxSeats: 2, RSVPs: rsvps(1)}
	done := Event{Date: "2026-01-01", MaxSeats: 1, RSVPs: rsvps(1)}

	assert.Equal(t, "full", full.Status(now))
	assert.Equal(t, "open", open.Status(now))
	assert.Equal(t, "completed", done.Status(now))
}

func TestEvent_DisplayDefaults(t *testing.T) {
	var e Event
	assert.Equal(t, "TBD", e.DisplayDate())
	assert.Equal(t, "TBD", e.DisplayTime())
}

func TestEvent_CloneDoesNotAlias(t *testing.T) {
	orig := Event{ID: "1", RSVPs: rsvps(1), CreatedBy: &User{ID: "u1", Email: "a@b.co"}}
	c := orig.Clone()
	c.RSVPs[0].Name = "changed"
	c.CreatedBy.Email = "changed"

	assert.Equal(t, "guest", orig.RSVPs[0].Name)
	assert.Equal(t, "a@b.co", orig.CreatedBy.Email)
}

func TestUser_Valid(t *testing.T) {
	assert.True(t, (&User{ID: "1", Email: "a@b.co"}).Valid())
	assert.False(t, (&User{ID: "1"}).Valid())
	assert.False(t, (&User{Email: "a@b.co"}).Valid())

	var nilUser *User
	assert.False(t, nilUser.Valid())
}
