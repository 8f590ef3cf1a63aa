package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/calendar"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/catalog"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/notify"
)

const shellHelp = `Commands:
  list                          show the catalog
  refresh                       reload the catalog from the server
  show <id>                     show one event
  create                        create an event on the server (prompts)
  set <id> <field> <value...>   edit a local draft (name, description,
                                location, date, time, image, max_seats)
  rm <id>                       remove an event from the local catalog
  rsvp <id> <email> <name...>   add a local RSVP
  export <file>                 write the catalog as iCalendar
  help                          this text
  quit                          leave the shell

Edits made with set, rm and rsvp stay local and are discarded by refresh.`

func newShellCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with local drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			store := c.newStore(notify.NewWriterSink(cmd.OutOrStdout()))
			sh := newShell(store, cmd.InOrStdin(), cmd.OutOrStdout())
			return sh.run(cmd.Context())
		},
	}
}

type shell struct {
	store *catalog.Store
	p     *prompter
	out   io.Writer
	now   func() time.Time
}

func newShell(store *catalog.Store, in io.Reader, out io.Writer) *shell {
	return &shell{store: store, p: newPrompter(in, out), out: out, now: time.Now}
}

var errQuit = errors.New("quit")

func (s *shell) run(ctx context.Context) error {
	s.store.FetchAll(ctx)
	fmt.Fprintf(s.out, "%d events loaded. Type help for commands.\n", len(s.store.Events()))

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(s.out, "> ")
		line, err := s.p.r.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}

		if err := s.exec(ctx, strings.Fields(line)); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *shell) exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit":
		return errQuit
	case "list", "ls":
		return printEvents(s.out, s.store.Events(), s.now())
	case "refresh":
		if s.store.FetchAll(ctx) {
			fmt.Fprintf(s.out, "%d events loaded.\n", len(s.store.Events()))
		}
	case "show":
		if len(args) != 1 {
			return errors.New("usage: show <id>")
		}
		ev, ok := s.store.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no event with id %q", args[0])
		}
		return printEvent(s.out, ev, s.now())
	case "create":
		return s.create(ctx)
	case "set":
		if len(args) < 3 {
			return errors.New("usage: set <id> <field> <value...>")
		}
		return s.set(args[0], args[1], strings.Join(args[2:], " "))
	case "rm":
		if len(args) != 1 {
			return errors.New("usage: rm <id>")
		}
		if !s.store.Remove(args[0]) {
			return fmt.Errorf("no event with id %q", args[0])
		}
	case "rsvp":
		if len(args) < 3 {
			return errors.New("usage: rsvp <id> <email> <name...>")
		}
		details := model.RSVPDetails{Email: args[1], Name: strings.Join(args[2:], " ")}
		if !s.store.AddRSVP(args[0], details) {
			return fmt.Errorf("no event with id %q", args[0])
		}
	case "export":
		if len(args) != 1 {
			return errors.New("usage: export <file>")
		}
		return s.export(args[0])
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func (s *shell) create(ctx context.Context) error {
	var req model.CreateEventRequest
	fields := []struct {
		label string
		dst   *string
	}{
		{"Name", &req.Name},
		{"Description", &req.Description},
		{"Date (YYYY-MM-DD)", &req.Date},
		{"Time (HH:MM)", &req.Time},
		{"Location", &req.Location},
	}
	for _, f := range fields {
		v, err := s.p.line(f.label)
		if err != nil {
			return err
		}
		*f.dst = strings.TrimSpace(v)
	}
	seats, err := s.p.line(fmt.Sprintf("Max seats [%d]", model.DefaultMaxSeats))
	if err != nil {
		return err
	}
	if seats = strings.TrimSpace(seats); seats != "" {
		n, err := strconv.Atoi(seats)
		if err != nil {
			return fmt.Errorf("max seats: %w", err)
		}
		req.MaxSeats = n
	}

	s.store.Create(ctx, req)
	return nil
}

func (s *shell) set(id, field, value string) error {
	ev, ok := s.store.Lookup(id)
	if !ok {
		return fmt.Errorf("no event with id %q", id)
	}

	switch field {
	case "name":
		ev.Name = value
	case "description":
		ev.Description = value
	case "location":
		ev.Location = value
	case "date":
		if _, err := time.Parse(model.DateLayout, value); err != nil {
			return errors.New("date must be YYYY-MM-DD")
		}
		ev.Date = value
	case "time":
		if _, err := time.Parse(model.TimeLayout, value); err != nil {
			return errors.New("time must be HH:MM")
		}
		ev.Time = value
	case "image":
		ev.Image = value
	case "max_seats":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return errors.New("max_seats must be a positive integer")
		}
		ev.MaxSeats = n
		ev.ServerAvailableSeats = nil
	default:
		return fmt.Errorf("unknown field %q", field)
	}

	s.store.Update(ev)
	return nil
}

func (s *shell) export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := calendar.Export(f, s.store.Events(), calendar.Options{})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Wrote %d events to %s\n", n, path)
	return nil
}
