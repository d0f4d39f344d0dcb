// Package client is the Go consumer of the roleboard HTTP API. It enforces
// the pre-flight invariants locally — the protected role is refused before
// any request is issued — and keeps every registered reader consistent
// through tag-based cache invalidation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ballotworks/roleboard/internal/platform/httpx"
	"github.com/ballotworks/roleboard/internal/shared"
)

const defaultReloadDelay = 500 * time.Millisecond

// Client talks to the roleboard service on behalf of one caller identity.
type Client struct {
	baseURL     string
	httpc       *http.Client
	identity    shared.Identity
	logger      *slog.Logger
	coord       *Coordinator
	reloadDelay time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithIdentity sets the caller identity stamped onto every request.
func WithIdentity(id shared.Identity) Option {
	return func(c *Client) { c.identity = id }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithCoordinator attaches a shared cache coordinator. Clients built
// without one get their own private coordinator.
func WithCoordinator(coord *Coordinator) Option {
	return func(c *Client) { c.coord = coord }
}

// WithReloadDelay tunes how long a confirmed self-targeted delete waits
// before reloading the full local state.
func WithReloadDelay(d time.Duration) Option {
	return func(c *Client) { c.reloadDelay = d }
}

// New constructs a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpc:       &http.Client{Timeout: 30 * time.Second},
		logger:      slog.Default(),
		reloadDelay: defaultReloadDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.coord == nil {
		c.coord = NewCoordinator(256)
	}
	return c
}

// Coordinator returns the attached cache coordinator, if any.
func (c *Client) Coordinator() *Coordinator {
	return c.coord
}

// Identity returns the caller identity this client acts as.
func (c *Client) Identity() shared.Identity {
	return c.identity
}

// do issues one request and decodes the envelope into out. Status codes map
// onto the shared error taxonomy; anything unclassified is a network error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %s", shared.ErrValidation, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrNetwork, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.identity.ApplyHeaders(req.Header)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env httpx.Envelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil && resp.StatusCode < 300 {
		return fmt.Errorf("%w: decode response: %s", shared.ErrNetwork, decodeErr)
	}

	if resp.StatusCode >= 300 {
		return classifyStatus(resp.StatusCode, env.Message)
	}
	if !env.Success {
		return fmt.Errorf("%w: %s", shared.ErrNetwork, messageOr(env.Message, "request rejected"))
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode response data: %s", shared.ErrNetwork, err)
		}
	}
	return nil
}

func classifyStatus(status int, message string) error {
	switch status {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", shared.ErrValidation, messageOr(message, "invalid request"))
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", shared.ErrForbidden, messageOr(message, "operation not allowed"))
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, messageOr(message, "resource not found"))
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", shared.ErrConflict, messageOr(message, "duplicate entry"))
	default:
		return fmt.Errorf("%w: %s", shared.ErrNetwork, messageOr(message, fmt.Sprintf("request failed with status %d", status)))
	}
}

func messageOr(message, fallback string) string {
	if strings.TrimSpace(message) != "" {
		return message
	}
	return fallback
}

func (c *Client) invalidate(tags ...Tag) {
	if c.coord != nil {
		c.coord.Invalidate(tags...)
	}
}
