package signup

import (
	"time"

	"github.com/dmitrymomot/onboardkit/pkg/otpgate"
	flow "github.com/dmitrymomot/onboardkit/pkg/signup"
)

// Config is the env-driven configuration of the signup HTTP surface.
type Config struct {
	Flow flow.Config
	OTP  otpgate.Config

	FlowTTL         time.Duration `env:"SIGNUP_FLOW_TTL" envDefault:"30m"`
	CleanupInterval time.Duration `env:"SIGNUP_FLOW_CLEANUP_INTERVAL" envDefault:"1m"`
	MaxFlows        int           `env:"SIGNUP_MAX_FLOWS" envDefault:"10000"`
	StartsPerMinute int           `env:"SIGNUP_STARTS_PER_MINUTE" envDefault:"20"`
}
