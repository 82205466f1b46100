package otpgate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/onboardkit/pkg/logger"
	"github.com/dmitrymomot/onboardkit/pkg/ratelimiter"
)

// Client is the part of the API the gate needs.
type Client interface {
	SendOTP(ctx context.Context, email, name string) error
	VerifyOTP(ctx context.Context, email, otp string) error
}

// Cooldown throttles sends per key.
type Cooldown interface {
	Allow(ctx context.Context, key string) (*ratelimiter.Result, error)
	Reset(ctx context.Context, key string) error
}

// Gate holds the verification state of one signup attempt. Safe for
// concurrent use.
type Gate struct {
	client   Client
	cooldown Cooldown
	logger   *slog.Logger

	mu       sync.Mutex
	email    string
	state    VerificationState
	code     string
	inFlight bool
}

// Option configures a Gate.
type Option func(*Gate)

// WithCooldown replaces the default per-gate cooldown bucket. Sharing one
// bucket between gates throttles an email across signup attempts.
func WithCooldown(c Cooldown) Option {
	return func(g *Gate) {
		if c != nil {
			g.cooldown = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewCooldown builds a bucket that allows one send per period.
func NewCooldown(store ratelimiter.Store, period time.Duration, opts ...ratelimiter.BucketOption) (*ratelimiter.Bucket, error) {
	if period <= 0 {
		period = DefaultCooldown
	}
	return ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       1,
		RefillRate:     1,
		RefillInterval: period,
	}, opts...)
}

// New creates a gate. Without WithCooldown it throttles with an in-memory
// bucket and the default 60 second period.
func New(client Client, opts ...Option) *Gate {
	g := &Gate{
		client: client,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cooldown == nil {
		store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
		g.cooldown, _ = NewCooldown(store, DefaultCooldown)
	}
	g.logger = g.logger.With(logger.Component("otpgate"))
	return g
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cooldownKey(email string) string {
	return "otp:" + email
}

// State reports the verification state of email. Any email other than the
// one the gate is tracking is unsent.
func (g *Gate) State(email string) VerificationState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if normalize(email) != g.email {
		return Unsent
	}
	return g.state
}

// Verified reports whether email has completed verification.
func (g *Gate) Verified(email string) bool {
	return g.State(email) == Verified
}

// Code returns the code that verified email, or "" if it is not verified.
func (g *Gate) Code(email string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if normalize(email) != g.email || g.state != Verified {
		return ""
	}
	return g.code
}

// Track switches the gate to email. A different email resets the state to
// unsent.
func (g *Gate) Track(email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.track(normalize(email))
}

// must hold g.mu
func (g *Gate) track(email string) {
	if email == g.email {
		return
	}
	g.email = email
	g.state = Unsent
	g.code = ""
}

// begin claims the single request slot for email.
func (g *Gate) begin(email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return ErrRequestInFlight
	}
	g.track(email)
	g.inFlight = true
	return nil
}

func (g *Gate) end() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// RequestCode sends a code to email. The send starts the resend cooldown; if
// a code went out to this email less than a cooldown period ago, a
// *CooldownError is returned and nothing is sent.
func (g *Gate) RequestCode(ctx context.Context, email, name string) error {
	return g.send(ctx, email, name, false)
}

// Resend sends a fresh code to an email that already got one.
func (g *Gate) Resend(ctx context.Context, email, name string) error {
	return g.send(ctx, email, name, true)
}

func (g *Gate) send(ctx context.Context, email, name string, resend bool) error {
	email = normalize(email)
	if email == "" {
		return ErrEmptyEmail
	}
	if err := g.begin(email); err != nil {
		return err
	}
	defer g.end()

	g.mu.Lock()
	state := g.state
	g.mu.Unlock()

	switch {
	case state == Verified:
		return ErrAlreadyVerified
	case resend && state == Unsent:
		return ErrCodeNotSent
	}

	res, err := g.cooldown.Allow(ctx, cooldownKey(email))
	if err != nil {
		return fmt.Errorf("otpgate: cooldown: %w", err)
	}
	if !res.Allowed() {
		return &CooldownError{Remaining: res.RetryAfter()}
	}

	event := "otp_sent"
	if resend {
		event = "otp_resent"
	}

	if err := g.client.SendOTP(ctx, email, name); err != nil {
		// A failed send must not lock the user out for a full period.
		_ = g.cooldown.Reset(context.WithoutCancel(ctx), cooldownKey(email))
		g.logger.WarnContext(ctx, "otp send failed", logger.Email(email), logger.Error(err))
		return err
	}

	g.mu.Lock()
	if g.email == email {
		g.state = Sent
		g.code = ""
	}
	g.mu.Unlock()

	g.logger.InfoContext(ctx, "otp sent", logger.Event(event), logger.Email(email))
	return nil
}

// VerifyCode checks code for email. It is refused with ErrCodeNotSent unless
// a code was sent to this exact email. Verifying an already verified email is
// a no-op.
func (g *Gate) VerifyCode(ctx context.Context, email, code string) error {
	email = normalize(email)
	code = strings.TrimSpace(code)
	if email == "" {
		return ErrEmptyEmail
	}
	if code == "" {
		return ErrEmptyCode
	}
	if err := g.begin(email); err != nil {
		return err
	}
	defer g.end()

	g.mu.Lock()
	state := g.state
	g.mu.Unlock()

	switch state {
	case Verified:
		return nil
	case Unsent:
		return ErrCodeNotSent
	}

	if err := g.client.VerifyOTP(ctx, email, code); err != nil {
		g.logger.WarnContext(ctx, "otp verification failed", logger.Email(email), logger.Error(err))
		return err
	}

	g.mu.Lock()
	if g.email == email {
		g.state = Verified
		g.code = code
	}
	g.mu.Unlock()

	g.logger.InfoContext(ctx, "otp verified", logger.Event("otp_verified"), logger.Email(email))
	return nil
}
