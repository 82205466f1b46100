package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/onboardkit/pkg/cache"
	"github.com/dmitrymomot/onboardkit/pkg/logger"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 * 1024

// Client talks to the onboarding API. Safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	timeout   time.Duration
	userAgent string
	tokens    TokenSource
	logger    *slog.Logger

	cacheSize int
	cacheTTL  time.Duration
	locations *cache.LRUCache[locationKey, []Option]
	inflight  singleflight.Group
}

// New creates a client for baseURL. Only http and https URLs with a host are
// accepted.
func New(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: u,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		logger:    logger.Discard(),
		cacheSize: DefaultLocationCacheSize,
		cacheTTL:  DefaultLocationCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cacheSize > 0 {
		var cacheOpts []cache.Option
		if c.cacheTTL > 0 {
			cacheOpts = append(cacheOpts, cache.WithTTL(c.cacheTTL))
		}
		c.locations = cache.NewLRUCache[locationKey, []Option](c.cacheSize, cacheOpts...)
	}
	c.logger = c.logger.With(logger.Component("apiclient"))

	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidBaseURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidBaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidBaseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do performs one request. in is JSON-encoded when non-nil; out, when
// non-nil, receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("apiclient: token source: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.DebugContext(ctx, "api request failed",
			slog.String("method", method),
			slog.String("path", path),
			logger.Duration(elapsed),
			logger.Error(err),
		)
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: timed out after %s: %w", ErrRequestFailed, c.timeout, err)
		}
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("path", path),
		logger.StatusCode(resp.StatusCode),
		logger.Duration(elapsed),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, raw),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}
	return nil
}

// errorMessage pulls the human-readable message out of an error body. It
// understands {"error": ...}, {"message": ...}, {"detail": ...} and
// field-keyed bodies such as {"email": ["already exists"]}.
func errorMessage(status int, raw []byte) string {
	fallback := http.StatusText(status)
	if fallback == "" {
		fallback = fmt.Sprintf("HTTP %d", status)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fallback
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}

	switch v := body.(type) {
	case string:
		if v != "" {
			return v
		}
	case []any:
		if msg := firstString(v); msg != "" {
			return msg
		}
	case map[string]any:
		for _, key := range []string{"error", "message", "detail"} {
			if msg := firstString(v[key]); msg != "" {
				return msg
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if msg := firstString(v[k]); msg != "" {
				return msg
			}
		}
	}
	return fallback
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s := firstString(item); s != "" {
				return s
			}
		}
	case map[string]any:
		for _, key := range []string{"error", "message", "detail"} {
			if s, ok := t[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
