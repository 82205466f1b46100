package signup

// Config holds environment-driven signup settings.
type Config struct {
	LandingURL string `env:"SIGNUP_LANDING_URL" envDefault:"/dashboard"`
	MinAge     int    `env:"SIGNUP_MIN_AGE" envDefault:"13"`
}

// Options converts the config into flow options.
func (c Config) Options() []FlowOption {
	return []FlowOption{
		WithLandingURL(c.LandingURL),
		WithValidator(Validator{MinAge: c.MinAge}),
	}
}
