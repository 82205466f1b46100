package apiclient

import "time"

// Config holds environment-driven client settings.
type Config struct {
	BaseURL           string        `env:"API_BASE_URL,required"`
	Timeout           time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	UserAgent         string        `env:"API_USER_AGENT" envDefault:"onboardkit/1.0"`
	LocationCacheSize int           `env:"API_LOCATION_CACHE_SIZE" envDefault:"256"`
	LocationCacheTTL  time.Duration `env:"API_LOCATION_CACHE_TTL" envDefault:"10m"`
}

// NewFromConfig builds a client from cfg. Explicit options are applied after
// the config values and win over them.
func NewFromConfig(cfg Config, opts ...ClientOption) (*Client, error) {
	base := []ClientOption{
		WithTimeout(cfg.Timeout),
		WithUserAgent(cfg.UserAgent),
		WithLocationCache(cfg.LocationCacheSize, cfg.LocationCacheTTL),
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}
