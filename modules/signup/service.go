package signup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/onboardkit/handler"
	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/binder"
	"github.com/dmitrymomot/onboardkit/pkg/logger"
	"github.com/dmitrymomot/onboardkit/pkg/otpgate"
	"github.com/dmitrymomot/onboardkit/pkg/ratelimiter"
	flow "github.com/dmitrymomot/onboardkit/pkg/signup"
)

// API is the remote API surface the service needs. *apiclient.Client
// satisfies it.
type API interface {
	flow.API
	Login(ctx context.Context, email, password string) (apiclient.LoginResponse, error)
}

// Sessions stores the auth sessions created by signup and login.
// *authsession.Manager satisfies it.
type Sessions interface {
	flow.SessionStarter
	Invalidate(ctx context.Context, key string) error
	KeyFromRequest(r *http.Request) string
}

// Service serves the signup wizard and login/logout over JSON.
type Service struct {
	api          API
	sessions     Sessions
	registry     *Registry
	cooldown     otpgate.Cooldown
	starts       ratelimiter.RateLimiter
	flowOpts     []flow.FlowOption
	registryOpts []RegistryOption
	cleanup      time.Duration
	logger       *slog.Logger
	errorHandler handler.ErrorHandler
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFlowOptions applies opts to every new flow.
func WithFlowOptions(opts ...flow.FlowOption) Option {
	return func(s *Service) {
		s.flowOpts = append(s.flowOpts, opts...)
	}
}

// WithCooldown shares one resend cooldown between all flows so starting a
// new flow does not reset it.
func WithCooldown(c otpgate.Cooldown) Option {
	return func(s *Service) {
		s.cooldown = c
	}
}

// WithStartLimiter limits flow creation per client IP.
func WithStartLimiter(l ratelimiter.RateLimiter) Option {
	return func(s *Service) {
		s.starts = l
	}
}

// WithRegistryOptions configures the flow registry.
func WithRegistryOptions(opts ...RegistryOption) Option {
	return func(s *Service) {
		s.registryOpts = append(s.registryOpts, opts...)
	}
}

// WithCleanupInterval sets how often expired flows are swept. Zero disables
// the background sweep.
func WithCleanupInterval(d time.Duration) Option {
	return func(s *Service) {
		s.cleanup = d
	}
}

// NewService creates the service. Close it to stop the flow sweeper.
func NewService(api API, sessions Sessions, opts ...Option) *Service {
	s := &Service{
		api:      api,
		sessions: sessions,
		cleanup:  time.Minute,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("signup_http"))
	s.errorHandler = handler.NewErrorHandler(s.logger, MapError)

	s.registry = NewRegistry(s.newFlow, s.cleanup,
		append([]RegistryOption{WithRegistryLogger(s.logger)}, s.registryOpts...)...)
	return s
}

// NewFromConfig wires a Service from cfg: flow settings, a shared in-memory
// resend cooldown, the per-IP start limit and the registry limits.
func NewFromConfig(cfg Config, api API, sessions Sessions, opts ...Option) (*Service, error) {
	store := ratelimiter.NewMemoryStore()

	cooldown, err := otpgate.NewCooldown(store, cfg.OTP.ResendCooldown)
	if err != nil {
		return nil, fmt.Errorf("signup: resend cooldown: %w", err)
	}

	configOpts := []Option{
		WithFlowOptions(cfg.Flow.Options()...),
		WithCooldown(cooldown),
		WithCleanupInterval(cfg.CleanupInterval),
		WithRegistryOptions(WithFlowTTL(cfg.FlowTTL), WithMaxFlows(cfg.MaxFlows)),
	}
	if cfg.StartsPerMinute > 0 {
		starts, err := ratelimiter.NewBucket(store, ratelimiter.Config{
			Capacity:       cfg.StartsPerMinute,
			RefillRate:     cfg.StartsPerMinute,
			RefillInterval: time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("signup: start limiter: %w", err)
		}
		configOpts = append(configOpts, WithStartLimiter(starts))
	}

	return NewService(api, sessions, append(configOpts, opts...)...), nil
}

func (s *Service) newFlow(id string) *flow.Flow {
	opts := []flow.FlowOption{flow.WithID(id), flow.WithLogger(s.logger)}
	if s.cooldown != nil {
		opts = append(opts, flow.WithGateOptions(otpgate.WithCooldown(s.cooldown)))
	}
	return flow.NewFlow(s.api, s.sessions, append(opts, s.flowOpts...)...)
}

// Registry exposes the live flows.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Close stops the flow sweeper.
func (s *Service) Close() error {
	return s.registry.Close()
}

// Handle returns the service routes:
//
//	POST   /signup
//	GET    /signup/{id}
//	PATCH  /signup/{id}
//	POST   /signup/{id}/next
//	POST   /signup/{id}/previous
//	POST   /signup/{id}/otp/send
//	POST   /signup/{id}/otp/resend
//	POST   /signup/{id}/otp/verify
//	GET    /signup/{id}/locations/{level}
//	PUT    /signup/{id}/locations/{level}
//	POST   /signup/{id}/submit
//	POST   /login
//	POST   /logout
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	jsonBody := binder.JSON()
	pathParams := binder.Path(chi.URLParam)

	r.Route("/signup", func(r chi.Router) {
		r.Post("/", wrap(s, s.create, limitStarts[struct{}](s)))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", wrap(s, s.view, nil))
			r.Patch("/", wrap(s, s.update, nil, jsonBody))
			r.Post("/next", wrap(s, s.next, nil))
			r.Post("/previous", wrap(s, s.previous, nil))
			r.Post("/otp/send", wrap(s, s.sendCode, nil))
			r.Post("/otp/resend", wrap(s, s.resendCode, nil))
			r.Post("/otp/verify", wrap(s, s.verifyCode, nil, jsonBody))
			r.Get("/locations/{level}", wrap(s, s.locationOptions, nil, pathParams))
			r.Put("/locations/{level}", wrap(s, s.selectLocation, nil, pathParams, jsonBody))
			r.Post("/submit", wrap(s, s.submit, nil))
		})
	})

	r.Post("/login", wrap(s, s.login, nil, jsonBody))
	r.Post("/logout", wrap(s, s.logout, nil))

	return r
}

func wrap[R any](s *Service, h handler.HandlerFunc[R], decorator handler.Decorator[R], binders ...handler.Bind) http.HandlerFunc {
	opts := []handler.WrapOption[R]{
		handler.WithBinders[R](binders...),
		handler.WithParams[R](chi.URLParam),
		handler.WithErrorHandler[R](s.errorHandler),
	}
	if decorator != nil {
		opts = append(opts, handler.WithDecorators(decorator))
	}
	return handler.Wrap(h, opts...)
}
