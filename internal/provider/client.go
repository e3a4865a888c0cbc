// Package provider holds the HTTP plumbing shared by the flight and hotel
// adapters: per-call timeouts, rate limiting and conversion of every
// non-2xx or transport outcome into a *models.ProviderFailure.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/Nour-MZ/Nomada/internal/models"
	"github.com/Nour-MZ/Nomada/internal/normalize"
)

// Default timeouts by operation weight.
const (
	ReadTimeout   = 15 * time.Second
	SearchTimeout = 30 * time.Second
	WriteTimeout  = 60 * time.Second
)

const maxBody = 4 << 20

// Observer receives one sample per provider round trip. Status is 0 for
// transport failures.
type Observer interface {
	ObserveProviderCall(ctx context.Context, provider, operation string, status int, elapsed time.Duration)
}

// Client performs JSON requests against one provider.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	observer   Observer
	decorate   func(*http.Request)
	errorPaths []string
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit caps outbound requests per second. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithRequestDecorator sets headers (auth, versioning) on every request.
func WithRequestDecorator(fn func(*http.Request)) Option {
	return func(c *Client) {
		c.decorate = fn
	}
}

// WithErrorPaths lists gjson paths tried, in order, to extract a readable
// message from an error body.
func WithErrorPaths(paths ...string) Option {
	return func(c *Client) {
		c.errorPaths = paths
	}
}

// New creates a client for the named provider rooted at baseURL.
func New(name, baseURL string, opts ...Option) *Client {
	c := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     log.New(io.Discard, "", 0),
		errorPaths: []string{"errors.0.message", "error.message", "error", "message"},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Name returns the provider name used in failures and metrics.
func (c *Client) Name() string {
	return c.name
}

// Call describes one request.
type Call struct {
	Operation string
	Method    string
	Path      string
	Query     url.Values
	Body      any
	Timeout   time.Duration
}

// Do sends the call and returns the raw response body on 2xx. Any other
// outcome, including a timeout, is a *models.ProviderFailure carrying the
// payload that was sent.
func (c *Client) Do(ctx context.Context, call Call) ([]byte, error) {
	var payload []byte
	if call.Body != nil {
		var err error
		payload, err = json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", call.Operation, err)
		}
	}
	fail := func(status int, msg string, resp json.RawMessage) *models.ProviderFailure {
		return &models.ProviderFailure{
			Provider:    c.name,
			Operation:   call.Operation,
			Message:     msg,
			Status:      status,
			Response:    resp,
			PayloadSent: scrub(payload),
		}
	}

	timeout := call.Timeout
	if timeout <= 0 {
		timeout = ReadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fail(0, "rate limited: "+err.Error(), nil)
		}
	}

	target := c.baseURL + call.Path
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", call.Operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.decorate != nil {
		c.decorate(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(ctx, call.Operation, 0, start)
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("%s timed out after %s", call.Operation, timeout)
		}
		c.logger.Printf("provider call failed provider=%s op=%s err=%v", c.name, call.Operation, err)
		return nil, fail(0, msg, nil)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	c.observe(ctx, call.Operation, resp.StatusCode, start)
	if err != nil {
		return nil, fail(resp.StatusCode, "failed to read response: "+err.Error(), nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Printf("provider call failed provider=%s op=%s status=%d", c.name, call.Operation, resp.StatusCode)
		return nil, fail(resp.StatusCode, c.errorMessage(resp.StatusCode, raw), asJSON(raw))
	}
	return raw, nil
}

func (c *Client) observe(ctx context.Context, op string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveProviderCall(ctx, c.name, op, status, time.Since(start))
	}
}

func (c *Client) errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range c.errorPaths {
			if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String && r.String() != "" {
				return r.String()
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
		return text
	}
	return http.StatusText(status)
}

// IsAmbiguous reports whether err leaves it unknown if the provider applied
// the request: timeouts, dropped connections, server errors and 2xx
// responses missing required fields.
func IsAmbiguous(err error) bool {
	var pf *models.ProviderFailure
	if !errors.As(err, &pf) {
		return false
	}
	return pf.Status == 0 || pf.Status >= 500 || (pf.Status >= 200 && pf.Status < 300)
}

// Incomplete builds the failure for a 2xx response that lacks a field the
// caller needs, such as an order id.
func Incomplete(provider, operation, field string, body []byte) *models.ProviderFailure {
	return &models.ProviderFailure{
		Provider:  provider,
		Operation: operation,
		Message:   fmt.Sprintf("%s succeeded but the response has no %s", operation, field),
		Status:    http.StatusOK,
		Response:  asJSON(body),
	}
}

func asJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if gjson.ValidBytes(body) {
		return json.RawMessage(body)
	}
	wrapped, _ := json.Marshal(map[string]string{"text": string(body)})
	return wrapped
}

func scrub(payload []byte) json.RawMessage {
	if len(payload) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil
	}
	out, err := json.Marshal(normalize.StripCardData(v))
	if err != nil {
		return nil
	}
	return out
}
