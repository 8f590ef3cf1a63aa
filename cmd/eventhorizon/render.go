package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
)

func printEvents(w io.Writer, events []model.Event, now time.Time) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No events.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDATE\tTIME\tLOCATION\tSEATS\tSTATUS")
	for i := range events {
		e := &events[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			e.ID, e.Name, e.DisplayDate(), e.DisplayTime(), e.Location,
			e.AvailableSeats(), e.Seats(), e.Status(now))
	}
	return tw.Flush()
}

func printEvent(w io.Writer, e model.Event, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", e.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", e.Name)
	fmt.Fprintf(tw, "When:\t%s %s\n", e.DisplayDate(), e.DisplayTime())
	fmt.Fprintf(tw, "Where:\t%s\n", e.Location)
	fmt.Fprintf(tw, "Seats:\t%d of %d available\n", e.AvailableSeats(), e.Seats())
	fmt.Fprintf(tw, "Status:\t%s\n", e.Status(now))
	if e.CreatedBy != nil {
		fmt.Fprintf(tw, "Host:\t%s\n", displayName(*e.CreatedBy))
	}
	if e.Description != "" {
		fmt.Fprintf(tw, "About:\t%s\n", e.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(e.RSVPs) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\nRSVPs (%d):\n", len(e.RSVPs))
	for _, r := range e.RSVPs {
		fmt.Fprintf(w, "  - %s <%s>\n", r.Name, r.Email)
	}
	return nil
}
