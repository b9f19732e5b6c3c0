// Package client is a typed client for the bug-tracker REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/bugboard/bugboard/internal/logging"
)

const DefaultTimeout = 15 * time.Second

// TokenStore holds the session token under a single fixed name.
type TokenStore interface {
	Load() string
	Save(token string)
	Clear()
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
	Transport http.RoundTripper
	Metrics   *Metrics
}

// Client talks to the bug-tracker API. A Client without a token store can
// only reach the public auth endpoints; use WithTokenStore for the rest.
type Client struct {
	baseURL string
	timeout time.Duration
	base    http.RoundTripper
	public  *http.Client
	authed  *http.Client
	store   TokenStore
	metrics *Metrics
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		base = &limitedTransport{base: base, limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), burst)}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		base:    base,
		public:  &http.Client{Timeout: opts.Timeout, Transport: base},
		metrics: opts.Metrics,
	}
}

// WithTokenStore returns a copy of c that authenticates with the token in
// store and clears it when the API answers 401.
func (c *Client) WithTokenStore(store TokenStore) *Client {
	cp := *c
	cp.store = store
	cp.authed = &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: storeSource{store: store},
			Base:   c.base,
		},
	}
	return &cp
}

// BaseURL is the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Ping checks that the API answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.public.Do(req)
	if err != nil {
		return fmt.Errorf("ping api: %w", err)
	}
	resp.Body.Close()
	return nil
}

type storeSource struct {
	store TokenStore
}

func (s storeSource) Token() (*oauth2.Token, error) {
	t := s.store.Load()
	if t == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: t, TokenType: "Bearer"}, nil
}

type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return t.base.RoundTrip(req)
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	out    any
	public bool

	// set instead of body for multipart uploads
	rawBody     io.Reader
	contentType string
}

func (c *Client) do(ctx context.Context, cl call) error {
	logger := logging.FromContext(ctx)
	start := time.Now()
	err := c.roundTrip(ctx, cl)
	c.metrics.record(cl.op, time.Since(start), err)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			logger.LogWarnf(cl.op, "%v", err)
		} else {
			logger.LogError(cl.op, err)
		}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, cl call) error {
	hc := c.public
	if !cl.public {
		if c.authed == nil {
			return &APIError{Op: cl.op, Kind: ErrUnauthorized, Cause: ErrNoToken}
		}
		hc = c.authed
	}

	reqURL := c.baseURL + cl.path
	if len(cl.query) > 0 {
		reqURL += "?" + cl.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case cl.rawBody != nil:
		body, contentType = cl.rawBody, cl.contentType
	case cl.body != nil:
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", cl.op, err)
		}
		body, contentType = bytes.NewReader(buf), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, reqURL, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", cl.op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if rid := logging.RequestID(ctx); rid != "" {
		req.Header.Set("X-Request-Id", rid)
	}

	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return &APIError{Op: cl.op, Kind: ErrUnauthorized, Cause: ErrNoToken}
		}
		return &APIError{Op: cl.op, Kind: ErrNetwork, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Op: cl.op, Status: resp.StatusCode, Kind: ErrNetwork, Cause: err}
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized && c.store != nil && !cl.public {
			c.store.Clear()
		}
		return &APIError{
			Op:      cl.op,
			Status:  resp.StatusCode,
			Message: serverMessage(data),
			Kind:    kindForStatus(resp.StatusCode),
		}
	}

	if cl.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, cl.out); err != nil {
		return &APIError{Op: cl.op, Status: resp.StatusCode, Kind: ErrServer, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func escape(segment string) string { return url.PathEscape(segment) }
