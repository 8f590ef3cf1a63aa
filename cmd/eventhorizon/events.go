package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/calendar"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/catalog"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/notify"
)

var errFetchFailed = errors.New("could not load events")

func newEventsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List, show, create, export and watch events",
	}
	cmd.AddCommand(
		newEventsListCmd(c),
		newEventsShowCmd(c),
		newEventsCreateCmd(c),
		newEventsExportCmd(c),
		newEventsWatchCmd(c),
	)
	return cmd
}

// loadCatalog returns a freshly fetched catalog. Failures have already been
// reported through the sink.
func (c *cli) loadCatalog(ctx context.Context, errOut io.Writer) (*catalog.Store, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	store := c.newStore(notify.NewWriterSink(errOut))
	if !store.FetchAll(ctx) {
		return nil, errFetchFailed
	}
	return store, nil
}

func newEventsListCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.loadCatalog(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			events := store.Events()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}
			return printEvents(cmd.OutOrStdout(), events, time.Now())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newEventsShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one event with its RSVPs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.loadCatalog(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ev, ok := store.Lookup(args[0])
			if !ok {
				return fmt.Errorf("no event with id %q", args[0])
			}
			return printEvent(cmd.OutOrStdout(), ev, time.Now())
		},
	}
}

func newEventsCreateCmd(c *cli) *cobra.Command {
	var req model.CreateEventRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		Long: `Create an event on the server.

Example:
  eventhorizon events create --name "Go Meetup" --date 2026-05-01 --time 18:30 \
    --location "Hall B" --description "Monthly gophers gathering" --max-seats 40`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := c.newStore(notify.NewWriterSink(cmd.ErrOrStderr()))
			if !store.Create(cmd.Context(), req) {
				return errors.New("event was not created")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "event name")
	f.StringVar(&req.Description, "description", "", "event description")
	f.StringVar(&req.Date, "date", "", "date as YYYY-MM-DD")
	f.StringVar(&req.Time, "time", "", "start time as HH:MM")
	f.StringVar(&req.Location, "location", "", "venue")
	f.StringVar(&req.Image, "image", "", "image URL")
	f.IntVar(&req.MaxSeats, "max-seats", model.DefaultMaxSeats, "capacity")
	for _, name := range []string{"name", "description", "date", "time", "location"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newEventsExportCmd(c *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export events as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.loadCatalog(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			n, err := calendar.Export(w, store.Events(), calendar.Options{})
			if err != nil {
				return err
			}
			log.WithField("events", n).Info("calendar exported")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newEventsWatchCmd(c *cli) *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the catalog on a schedule and report changes",
		Long: `Refresh the catalog on a cron schedule (default from the "refresh"
config key) and print events that appeared or disappeared.

Examples:
  eventhorizon events watch
  eventhorizon events watch --schedule "*/10 * * * *"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			if schedule == "" {
				schedule = c.cfg.Refresh
			}

			out := cmd.OutOrStdout()
			store := c.newStore(notify.Multi{notify.NewWriterSink(cmd.ErrOrStderr()), notify.NewLogSink()})
			w := &watcher{store: store, out: out}

			jobs := newWatchScheduler()
			if _, err := jobs.AddFunc(schedule, func() { w.refresh(cmd.Context()) }); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}

			w.refresh(cmd.Context())
			jobs.Start()
			log.WithField("schedule", schedule).Info("watching events")

			<-cmd.Context().Done()
			<-jobs.Stop().Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule, e.g. \"@every 1m\"")
	return cmd
}

// newWatchScheduler runs at most one refresh at a time. A tick that fires
// while the previous refresh is still running is skipped.
func newWatchScheduler() *cron.Cron {
	return cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger()))))
}

// watcher diffs consecutive catalog snapshots.
type watcher struct {
	store *catalog.Store
	out   io.Writer

	mu   sync.Mutex
	seen map[string]string
}

func (w *watcher) refresh(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.store.FetchAll(ctx) {
		return
	}
	events := w.store.Events()
	current := make(map[string]string, len(events))
	for _, e := range events {
		current[e.ID] = e.Name
	}

	if w.seen == nil {
		fmt.Fprintf(w.out, "%s  %d events\n", time.Now().Format(time.TimeOnly), len(events))
		w.seen = current
		return
	}

	var added, removed []string
	for id, name := range current {
		if _, ok := w.seen[id]; !ok {
			added = append(added, fmt.Sprintf("+ %s  %s", id, name))
		}
	}
	for id, name := range w.seen {
		if _, ok := current[id]; !ok {
			removed = append(removed, fmt.Sprintf("- %s  %s", id, name))
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	for _, line := range append(added, removed...) {
		fmt.Fprintln(w.out, line)
	}
	w.seen = current
}
