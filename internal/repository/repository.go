// Package repository implements all database queries for the event API.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrEventFull is returned when an event has no remaining seats.
var ErrEventFull = errors.New("event is fully booked")

// ErrAlreadyRSVPd is returned when the same email responds twice.
var ErrAlreadyRSVPd = errors.New("email already registered for this event")

// ErrEmailTaken is returned when registering an email that already has an account.
var ErrEmailTaken = errors.New("user with this email already exists")

// ErrUnavailable means the database could not be reached.
var ErrUnavailable = errors.New("database unavailable")

const uniqueViolation = "23505"

// wrap annotates err with op and tags connectivity failures with ErrUnavailable.
func wrap(op string, err error) error {
	if isConnectivity(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnectivity(err error) bool {
	var connErr *pgconn.ConnectError
	var netErr *net.OpError
	return errors.As(err, &connErr) || errors.As(err, &netErr) || pgconn.Timeout(err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `
	e.id, e.name, e.description, e.location,
	to_char(e.date, 'YYYY-MM-DD'), to_char(e.time, 'HH24:MI'),
	e.image, e.max_seats, e.created_at, e.updated_at,
	u.id, u.name, u.email,
	(SELECT COUNT(*) FROM rsvps r WHERE r.event_id = e.id)`

const eventFrom = `
	FROM events e
	LEFT JOIN users u ON u.id = e.created_by`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e                     model.Event
		createdAt, updatedAt  time.Time
		userID, uName, uEmail *string
		count                 int
	)
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Location,
		&e.Date, &e.Time,
		&e.Image, &e.MaxSeats, &createdAt, &updatedAt,
		&userID, &uName, &uEmail,
		&count,
	)
	if err != nil {
		return nil, err
	}
	e.CreatedAt, e.UpdatedAt = &createdAt, &updatedAt
	e.ServerRSVPCount = &count
	if userID != nil {
		e.CreatedBy = &model.User{ID: *userID, Name: deref(uName), Email: deref(uEmail)}
	}
	return &e, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, req model.CreateEventRequest, owner *model.User) (*model.Event, error) {
	now := time.Now().UTC()
	id := uuid.New().String()

	var createdBy *string
	if owner != nil {
		createdBy = &owner.ID
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, name, description, location, date, time, image, max_seats, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::date, $6::time, $7, $8, $9, $10, $10)`,
		id, req.Name, req.Description, req.Location, req.Date, req.Time, req.Image, req.MaxSeats, createdBy, now,
	)
	if err != nil {
		return nil, wrap("insert event", err)
	}

	zero := 0
	event := &model.Event{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		Location:        req.Location,
		Date:            req.Date,
		Time:            req.Time,
		Image:           req.Image,
		MaxSeats:        req.MaxSeats,
		ServerRSVPCount: &zero,
		CreatedAt:       &now,
		UpdatedAt:       &now,
	}
	if owner != nil {
		u := *owner
		event.CreatedBy = &u
	}
	return event, nil
}

// List returns all events ordered by date, soonest first.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT`+eventColumns+eventFrom+`
		 ORDER BY e.date ASC, e.time ASC, e.created_at ASC`,
	)
	if err != nil {
		return nil, wrap("list events", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrap("scan event", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list events", err)
	}
	return events, nil
}

// GetByID returns a single event, with its RSVPs, or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT`+eventColumns+eventFrom+`
		 WHERE e.id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get event", err)
	}

	rsvps, err := listRSVPs(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	e.RSVPs = rsvps
	return e, nil
}

// RSVPRepository handles persistence for RSVPs.
type RSVPRepository struct {
	db *pgxpool.Pool
}

// NewRSVPRepository constructs an RSVPRepository.
func NewRSVPRepository(db *pgxpool.Pool) *RSVPRepository {
	return &RSVPRepository{db: db}
}

// Add records an RSVP inside a transaction that holds a row lock on the
// event. SELECT … FOR UPDATE serialises concurrent responders to the same
// event, so the seat check and the insert see a consistent count.
func (r *RSVPRepository) Add(ctx context.Context, eventID string, details model.RSVPDetails) (rsvp *model.RSVP, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, wrap("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var maxSeats int
	err = tx.QueryRow(ctx,
		`SELECT max_seats FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&maxSeats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("lock event row", err)
	}

	var taken, dup int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE lower(email) = lower($2))
		 FROM rsvps WHERE event_id = $1`,
		eventID, details.Email,
	).Scan(&taken, &dup)
	if err != nil {
		return nil, wrap("count rsvps", err)
	}
	if dup > 0 {
		return nil, ErrAlreadyRSVPd
	}
	if taken >= maxSeats {
		return nil, ErrEventFull
	}

	now := time.Now().UTC()
	rsvp = &model.RSVP{
		ID:        uuid.New().String(),
		Name:      details.Name,
		Email:     details.Email,
		CreatedAt: &now,
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO rsvps (id, event_id, name, email, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rsvp.ID, eventID, rsvp.Name, rsvp.Email, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRSVPd
		}
		return nil, wrap("insert rsvp", err)
	}
	_, err = tx.Exec(ctx, `UPDATE events SET updated_at = $2 WHERE id = $1`, eventID, now)
	if err != nil {
		return nil, wrap("touch event", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, wrap("commit transaction", err)
	}
	return rsvp, nil
}

// ListByEvent returns all RSVPs for a given event, oldest first, or
// ErrNotFound when the event does not exist.
func (r *RSVPRepository) ListByEvent(ctx context.Context, eventID string) ([]model.RSVP, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return nil, wrap("check event", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return listRSVPs(ctx, r.db, eventID)
}

func listRSVPs(ctx context.Context, db *pgxpool.Pool, eventID string) ([]model.RSVP, error) {
	rows, err := db.Query(ctx,
		`SELECT id, name, email, created_at
		 FROM rsvps
		 WHERE event_id = $1
		 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, wrap("list rsvps", err)
	}
	defer rows.Close()

	var out []model.RSVP
	for rows.Next() {
		var (
			rsvp model.RSVP
			at   time.Time
		)
		if err := rows.Scan(&rsvp.ID, &rsvp.Name, &rsvp.Email, &at); err != nil {
			return nil, wrap("scan rsvp", err)
		}
		rsvp.CreatedAt = &at
		out = append(out, rsvp)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list rsvps", err)
	}
	return out, nil
}
