package dicloak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dicloak-labs/dicloak-console/pkg/domain/model"
	"github.com/dicloak-labs/dicloak-console/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Intervals names the artificial waits the orchestration paths use. The
// defaults model the eventual-consistency windows observed in DICloak;
// tests shrink them to keep runs fast.
type Intervals struct {
	// PageFetch is the pause between successful pagination pages
	PageFetch time.Duration
	// PageRetry is the wait before retrying a failed early page
	PageRetry time.Duration
	// WriteVerify is the settling window between a write and its
	// verification read
	WriteVerify time.Duration
	// AllGroupSwitch is the settling window after entering the
	// all-groups state during the transition strategy
	AllGroupSwitch time.Duration
}

// DefaultIntervals returns the production wait configuration
func DefaultIntervals() Intervals {
	return Intervals{
		PageFetch:      200 * time.Millisecond,
		PageRetry:      time.Second,
		WriteVerify:    500 * time.Millisecond,
		AllGroupSwitch: time.Second,
	}
}

// Client is a session-scoped DICloak API client. Credentials and the
// memoized team identifier are correlated: replacing the API key drops the
// identifier so it is never trusted across a credential change.
type Client struct {
	baseURL     string
	http        *http.Client
	intervals   Intervals
	knownTeamID types.TeamID

	mu             sync.Mutex
	apiKey         string
	teamID         types.TeamID
	teamIDResolved bool
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithIntervals replaces the wait configuration
func WithIntervals(iv Intervals) Option {
	return func(c *Client) {
		c.intervals = iv
	}
}

// WithKnownTeamID seeds a previously seen team identifier candidate. The
// resolver verifies it before trusting it, and falls back to it when every
// discovery probe fails.
func WithKnownTeamID(id types.TeamID) Option {
	return func(c *Client) {
		c.knownTeamID = id
	}
}

// New creates a DICloak client for the given base URL (including the
// /openapi prefix) and API key.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		http:      &http.Client{Timeout: 30 * time.Second},
		intervals: DefaultIntervals(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAPIKey replaces the session credentials. The memoized team identifier
// belongs to the old credentials and is dropped together with them.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
	c.teamID = ""
	c.teamIDResolved = false
}

// envelope is the wrapper every DICloak response uses regardless of HTTP
// status. Code zero is the only success condition.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// request issues a single HTTP call and returns the envelope data. It
// never retries; retry policy lives in the callers that know whether a
// failure is soft.
func (c *Client) request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	reqURL := c.baseURL + path

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode request body", goerr.V("path", path))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("method", method), goerr.V("url", reqURL))
	}

	c.mu.Lock()
	apiKey := c.apiKey
	c.mu.Unlock()
	req.Header.Set("X-API-KEY", apiKey)
	req.Header.Set("Content-Type", "application/json")

	ctxlog.From(ctx).Debug("DICloak request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, method, reqURL)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body",
			goerr.T(model.ErrTagNetwork), goerr.V("method", method), goerr.V("path", path))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPStatusError(resp.StatusCode, resp.Status, raw, method, path)
	}

	// DICloak occasionally emits non-JSON error pages even on 200.
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, goerr.New("unexpected non-JSON response",
			goerr.T(model.ErrTagUnexpectedResponse),
			goerr.V("content_type", ct),
			goerr.V("path", path),
			goerr.V("body", truncate(string(raw), 512)))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, goerr.Wrap(err, "failed to decode response envelope",
			goerr.T(model.ErrTagUnexpectedResponse),
			goerr.V("path", path),
			goerr.V("body", truncate(string(raw), 512)))
	}

	if env.Code != 0 {
		return nil, goerr.New("DICloak API error",
			goerr.T(model.ErrTagAPIError),
			goerr.V("code", env.Code),
			goerr.V("msg", env.Msg),
			goerr.V("path", path))
	}

	return env.Data, nil
}

// requestInto issues a request and decodes the envelope data into T. A
// null or absent data field leaves T at its zero value.
func requestInto[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	raw, err := c.request(ctx, method, path, body)
	if err != nil {
		return out, err
	}
	if !hasData(raw) {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, goerr.Wrap(err, "failed to decode response data",
			goerr.T(model.ErrTagUnexpectedResponse), goerr.V("path", path))
	}
	return out, nil
}

// newHTTPStatusError builds a non-2xx failure carrying the status and body
// as typed values, with status-class tags so write paths can translate
// without sniffing messages.
func newHTTPStatusError(status int, statusText string, body []byte, method, path string) error {
	opts := []goerr.Option{
		goerr.T(model.ErrTagHTTPStatus),
		goerr.V("status", status),
		goerr.V("status_text", statusText),
		goerr.V("body", truncate(string(body), 512)),
		goerr.V("method", method),
		goerr.V("path", path),
	}
	switch status {
	case http.StatusBadRequest:
		opts = append(opts, goerr.T(model.ErrTagValidation))
	case http.StatusNotFound:
		opts = append(opts, goerr.T(model.ErrTagNotFound))
	case http.StatusForbidden:
		opts = append(opts, goerr.T(model.ErrTagPermission))
	}
	return goerr.New("DICloak returned non-2xx status", opts...)
}

// classifyTransportError tags network-level failures so callers can present
// actionable guidance. The raw cause is preserved; UI text is not decided
// here.
func classifyTransportError(err error, method, reqURL string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return goerr.Wrap(err, "request aborted",
			goerr.T(model.ErrTagNetwork), goerr.V("method", method), goerr.V("url", reqURL))
	}

	msg := "DICloak is unreachable"
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.As(err, &dnsErr):
		msg = "DNS lookup for DICloak host failed"
	case errors.As(err, &netErr) && netErr.Timeout():
		msg = "request to DICloak timed out"
	}
	return goerr.Wrap(err, msg,
		goerr.T(model.ErrTagNetwork), goerr.V("method", method), goerr.V("url", reqURL))
}

// wait sleeps for d unless the context is cancelled first
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// hasData reports whether an envelope data field carries a value
func hasData(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func memberPath(id types.MemberID) string {
	return "/v1/member/" + url.PathEscape(id.String())
}
