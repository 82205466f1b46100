package apiclient

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultTimeout           = 15 * time.Second
	DefaultUserAgent         = "onboardkit/1.0"
	DefaultLocationCacheSize = 256
	DefaultLocationCacheTTL  = 10 * time.Minute
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Non-positive values are ignored.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTokenSource attaches a bearer token to requests when the source has one.
func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = ts
	}
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLocationCache sizes the location list cache. A size of zero or less
// disables caching; ttl of zero keeps entries until evicted.
func WithLocationCache(size int, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cacheSize = size
		c.cacheTTL = ttl
	}
}
