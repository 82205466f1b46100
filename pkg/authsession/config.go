package authsession

import "time"

// Store backends accepted by Config.Store.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds environment-driven session settings of the HTTP service.
type Config struct {
	Store       string        `env:"AUTH_SESSION_STORE" envDefault:"memory"`
	TTL         time.Duration `env:"AUTH_SESSION_TTL" envDefault:"720h"`
	Header      string        `env:"AUTH_SESSION_HEADER" envDefault:"X-Session-Key"`
	RedisPrefix string        `env:"AUTH_SESSION_REDIS_PREFIX" envDefault:"onboard:session:"`
}

// Options converts the config into manager options.
func (c Config) Options() []Option {
	return []Option{WithTTL(c.TTL), WithHeader(c.Header)}
}
