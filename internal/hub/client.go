// Package hub wraps outbound calls to a hub event's API. A client is bound to
// one event's bearer token and attaches it to every request it issues.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openreferee/server/internal/domain/events"
	"github.com/openreferee/server/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// CallError is a non-2xx response from the hub. Callers decide whether to
// retry or abort; the client never swallows it.
type CallError struct {
	URL    string
	Status int
}

func (e *CallError) Error() string {
	return fmt.Sprintf("hub call to %s failed with status %d", e.URL, e.Status)
}

// IsStatus reports whether err is a hub call failure with the given status.
func IsStatus(err error, status int) bool {
	var callErr *CallError
	return errors.As(err, &callErr) && callErr.Status == status
}

// Client is an HTTP session against a single event's hub endpoints.
type Client struct {
	http  *http.Client
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// NewClient builds a session that sends the given bearer token on every
// request.
func NewClient(token string, opts ...Option) *Client {
	client := &Client{
		http:  &http.Client{Timeout: defaultTimeout},
		token: token,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewSessionFactory returns a factory producing clients with the given
// options, suitable for injection into the domain services.
func NewSessionFactory(opts ...Option) events.SessionFactory {
	return func(token string) events.HubSession {
		return NewClient(token, opts...)
	}
}

// Get issues an authenticated GET and returns the response body. Non-2xx
// responses become a *CallError.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// PostJSON issues an authenticated POST with a JSON body and returns the
// response body. Non-2xx responses become a *CallError.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal hub payload: %w", err)
	}
	return c.do(ctx, http.MethodPost, url, body)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build hub request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.HubRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("hub call to %s: %w", url, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	metrics.HubRequestsTotal.WithLabelValues(method, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &CallError{URL: url, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read hub response from %s: %w", url, err)
	}
	return data, nil
}
