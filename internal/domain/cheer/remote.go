package cheer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/stampcard/pkg/logger"
	"github.com/okian/stampcard/pkg/metrics"
)

// DefaultTimeout bounds one request to the cheer service.
const DefaultTimeout = 3 * time.Second

const maxCheerBytes = 4 << 10

// Option configures a Remote suggester.
type Option func(*Remote)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Remote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Remote) {
		if c != nil {
			r.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Remote) {
		if l != nil {
			r.log = l
		}
	}
}

// Remote asks an HTTP service for a cheer. The service receives
// {"name","count","prompt"} and answers with {"text"} or a plain text body.
type Remote struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	log      logger.Logger
	fallback Fallback
}

type request struct {
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Prompt string `json:"prompt"`
}

type response struct {
	Text string `json:"text"`
}

// NewRemote creates a Remote suggester for endpoint.
func NewRemote(endpoint string, opts ...Option) (*Remote, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, ErrNoEndpoint
	}
	r := &Remote{
		endpoint: endpoint,
		timeout:  DefaultTimeout,
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Named("cheer")
	}
	return r, nil
}

// Suggest returns the remote text, or a fallback message when the call fails.
// The error is always nil.
func (r *Remote) Suggest(ctx context.Context, name string, count int) (string, error) {
	text, err := r.fetch(ctx, name, count)
	if err != nil {
		r.log.Warn(ctx, "cheer service unavailable, using fallback",
			logger.String("endpoint", r.endpoint), logger.Error(err))
		metrics.RecordErrorByComponent("cheer", "remote")
		return r.fallback.Suggest(ctx, name, count)
	}
	return text, nil
}

func (r *Remote) fetch(ctx context.Context, name string, count int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(request{Name: name, Count: count, Prompt: Prompt(name, count)})
	if err != nil {
		return "", fmt.Errorf("marshal cheer request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCheerBytes))
	if err != nil {
		return "", fmt.Errorf("read cheer: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	text := strings.TrimSpace(string(raw))
	var decoded response
	if json.Unmarshal(raw, &decoded) == nil {
		text = strings.TrimSpace(decoded.Text)
	}
	if text == "" {
		return "", ErrEmptyCheer
	}
	return text, nil
}
