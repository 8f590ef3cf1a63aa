// Package calendar renders catalog snapshots as iCalendar documents.
package calendar

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
)

const productID = "-//EventHorizon//Event Catalog//EN"

// TimedDuration is the length given to events that carry a start time.
const TimedDuration = time.Hour

// Options control how wall-clock dates are interpreted and stamped.
type Options struct {
	// Location is the zone Event.Date and Event.Time are read in.
	// Defaults to time.Local.
	Location *time.Location
	// Now stamps DTSTAMP. Defaults to time.Now.
	Now func() time.Time
}

// Build converts events into a calendar. Events without a parseable date are
// skipped. It returns the calendar and the number of VEVENTs it holds.
func Build(events []model.Event, opts Options) (*ics.Calendar, int) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	stamp := now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	n := 0
	for _, e := range events {
		if e.Date == "" {
			continue
		}
		day, err := time.ParseInLocation(model.DateLayout, e.Date, loc)
		if err != nil {
			log.WithError(err).WithField("event_id", e.ID).Warn("skipping event with unparseable date")
			continue
		}

		ve := cal.AddEvent(uid(e))
		ve.SetDtStampTime(stamp)
		ve.SetSummary(e.Name)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
		if e.CreatedAt != nil {
			ve.SetCreatedTime(*e.CreatedAt)
		}
		if e.UpdatedAt != nil {
			ve.SetModifiedAt(*e.UpdatedAt)
		}

		if start, ok := startOf(day, e.Time, loc); ok {
			ve.SetStartAt(start)
			ve.SetEndAt(start.Add(TimedDuration))
		} else {
			ve.SetAllDayStartAt(day)
			ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		}

		for _, r := range e.RSVPs {
			if r.Email == "" {
				continue
			}
			ve.AddAttendee(r.Email, ics.WithCN(r.Name), ics.ParticipationStatusAccepted)
		}
		n++
	}
	return cal, n
}

// Export writes events to w as an iCalendar document and reports how many
// were included.
func Export(w io.Writer, events []model.Event, opts Options) (int, error) {
	cal, n := Build(events, opts)
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return 0, fmt.Errorf("writing calendar: %w", err)
	}
	return n, nil
}

func startOf(day time.Time, clock string, loc *time.Location) (time.Time, bool) {
	if clock == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(model.TimeLayout, clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), true
}

func uid(e model.Event) string {
	return e.ID + "@eventhorizon"
}
