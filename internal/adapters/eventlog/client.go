// Package eventlog talks to the remote append-only log.
//
// The endpoint is a spreadsheet script: GET returns every row as a JSON
// array, POST appends one row. POST bodies are sent as text/plain so the
// script host accepts them without a preflight.
package eventlog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/stampcard/internal/domain/logrow"
	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/pkg/logger"
)

// Defaults.
const (
	DefaultTimeout  = 10 * time.Second
	ContentType     = "text/plain;charset=utf-8"
	RequestIDHeader = "X-Request-Id"
	maxBodyBytes    = 32 << 20
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client reads and appends log rows.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	logger   logger.Logger
	maxBody  int64
}

// New creates a client for endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, ErrNoEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		timeout:  DefaultTimeout,
		http:     &http.Client{},
		maxBody:  maxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("eventlog")
	}
	return c, nil
}

// Endpoint returns the log URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Fetch reads the whole log. Malformed rows are skipped and counted; a body
// that is not a JSON array is an error.
func (c *Client) Fetch(ctx context.Context) (logrow.Batch, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return logrow.Batch{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return logrow.Batch{}, fmt.Errorf("fetch log: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return logrow.Batch{}, fmt.Errorf("fetch log: %w", &StatusError{Code: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return logrow.Batch{}, fmt.Errorf("read log: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return logrow.Batch{}, fmt.Errorf("fetch log: %w: over %d bytes", ErrLogTooLarge, c.maxBody)
	}
	batch, err := logrow.Decode(body)
	if err != nil {
		return logrow.Batch{}, fmt.Errorf("fetch log: %w", err)
	}
	if batch.Skipped > 0 {
		c.logger.Warn(ctx, "skipped malformed log rows", logger.Int("skipped", batch.Skipped))
	}
	return batch, nil
}

// Append posts one event. The response body is not interpreted. There is no
// retry.
func (c *Client) Append(ctx context.Context, e model.Event) error {
	body, err := logrow.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	id := uuid.NewString()
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set(RequestIDHeader, id)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("append row %s: %w", id, &StatusError{Code: resp.StatusCode})
	}
	return nil
}
