package otpgate

import "time"

const DefaultCooldown = 60 * time.Second

// Config holds environment-driven gate settings.
type Config struct {
	ResendCooldown time.Duration `env:"OTP_RESEND_COOLDOWN" envDefault:"60s"`
}
