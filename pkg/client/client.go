package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/rs/zerolog"
)

// DefaultFallbackLabel replaces an absent phoneNumber on listed records
const DefaultFallbackLabel = "Unknown Album"

// maxErrorBody caps how much of a failed response body is kept
const maxErrorBody = 512

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request timeout of the underlying HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTransport wraps the underlying HTTP client's transport
func WithTransport(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(c *Client) {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.httpClient.Transport = wrap(base)
	}
}

// WithLogger sets the logger that receives swallowed list failures
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "record_client").Logger()
	}
}

// WithFallbackLabel overrides the phoneNumber substitute
func WithFallbackLabel(label string) Option {
	return func(c *Client) {
		c.fallbackLabel = label
	}
}

// Client issues record operations against one REST resource
type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        zerolog.Logger
	fallbackLabel string
}

// NewClient creates a Client rooted at baseURL (e.g. "http://localhost:5000/api/calls")
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:        zerolog.Nop(),
		fallbackLabel: DefaultFallbackLabel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resource root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches all records. It never fails: on any error it logs the failure
// and returns an empty slice so callers can always render.
func (c *Client) List(ctx context.Context) []types.Record {
	records, err := c.Fetch(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("error fetching records")
		return []types.Record{}
	}
	return records
}

// Fetch is List that reports the failure instead of degrading to an empty
// result.
func (c *Client) Fetch(ctx context.Context) ([]types.Record, error) {
	var records []types.Record
	if err := c.do(ctx, "list", http.MethodGet, c.baseURL, nil, &records); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("count", len(records)).Msg("fetched records")

	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		out = append(out, c.normalize(r))
	}
	return out, nil
}

// Create submits a new record. An empty status defaults to Pending.
func (c *Client) Create(ctx context.Context, fields types.RecordFields) error {
	if fields.Status == "" {
		fields.Status = types.InitialStatus
	}
	return c.do(ctx, "create", http.MethodPost, c.baseURL, fields, nil)
}

// ReplaceAll submits every field of an existing record and returns the
// server's resulting record.
func (c *Client) ReplaceAll(ctx context.Context, id types.RecordID, fields types.RecordFields) (types.Record, error) {
	// Fields the server leaves out of its reply keep the submitted values.
	updated := types.Record{ID: id, RecordFields: fields}
	if err := c.do(ctx, "replaceAll", http.MethodPut, c.recordURL(id), fields, &updated); err != nil {
		return types.Record{}, fmt.Errorf("failed to update call record: %w", err)
	}
	if updated.ID == "" {
		updated.ID = id
	}
	return c.normalize(updated), nil
}

// UpdateStatus submits a partial update carrying only the status field
func (c *Client) UpdateStatus(ctx context.Context, id types.RecordID, status types.Status) error {
	body := map[string]types.Status{"status": status}
	return c.do(ctx, "updateStatus", http.MethodPut, c.recordURL(id), body, nil)
}

// Remove deletes a record by id
func (c *Client) Remove(ctx context.Context, id types.RecordID) error {
	return c.do(ctx, "remove", http.MethodDelete, c.recordURL(id), nil, nil)
}

func (c *Client) recordURL(id types.RecordID) string {
	return c.baseURL + "/" + url.PathEscape(string(id))
}

func (c *Client) normalize(r types.Record) types.Record {
	if strings.TrimSpace(r.PhoneNumber) == "" {
		r.PhoneNumber = c.fallbackLabel
	}
	return r
}

// do performs one round trip. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op, method, target string, in, out interface{}) error {
	fail := func(status int, body string, err error) error {
		return &TransportError{Op: op, Method: method, URL: target, StatusCode: status, Body: body, Err: err}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fail(0, "", fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fail(0, "", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fail(resp.StatusCode, strings.TrimSpace(string(data)), fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fail(resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}
