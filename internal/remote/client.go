// Package remote is the HTTP transport to the event API. It attaches the
// bearer token and decodes response bodies; it never decides whether a
// status code means success or failure.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/model"
)

// TokenSource supplies the current bearer token.
type TokenSource interface {
	Token() (string, bool)
}

// Response is a completed HTTP exchange.
type Response struct {
	Status int
	Body   model.Envelope
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// TransportError means the call could not complete: no response was
// received or the body could not be read or decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to the API rooted at BaseURL (e.g. http://localhost:8000/api).
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient constructs a Client. tokens may be nil for unauthenticated use.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListEvents issues GET /events/.
func (c *Client) ListEvents(ctx context.Context) (*Response, error) {
	return c.do(ctx, "list events", http.MethodGet, "/events/", nil, true)
}

// CreateEvent issues POST /events/.
func (c *Client) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*Response, error) {
	return c.do(ctx, "create event", http.MethodPost, "/events/", req, true)
}

// Login issues POST /auth/login/.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*Response, error) {
	return c.do(ctx, "login", http.MethodPost, "/auth/login/", req, false)
}

// Register issues POST /auth/register/.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*Response, error) {
	return c.do(ctx, "register", http.MethodPost, "/auth/register/", req, false)
}

// Logout issues POST /auth/logout/.
func (c *Client) Logout(ctx context.Context) (*Response, error) {
	return c.do(ctx, "logout", http.MethodPost, "/auth/logout/", nil, true)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any, auth bool) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if auth && c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	logger := log.WithFields(log.Fields{"op": op, "method": method, "path": path})
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	out := &Response{Status: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out.Body); err != nil {
			// A proxy error page on a failing status is still a status the
			// caller can classify; a garbled success body is not.
			if out.OK() {
				return nil, &TransportError{Op: op, Err: fmt.Errorf("decode body: %w", err)}
			}
			out.Body = model.Envelope{}
		}
	}

	logger.WithFields(log.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("api call completed")

	return out, nil
}
