// Command onboardd serves the signup wizard, login and logout as a JSON API
// in front of the remote accounts API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/onboardkit/modules/signup"
	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/authsession"
	"github.com/dmitrymomot/onboardkit/pkg/clientip"
	"github.com/dmitrymomot/onboardkit/pkg/config"
	"github.com/dmitrymomot/onboardkit/pkg/httpserver"
	"github.com/dmitrymomot/onboardkit/pkg/logger"
	"github.com/dmitrymomot/onboardkit/pkg/redis"
	"github.com/dmitrymomot/onboardkit/pkg/requestid"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	API      apiclient.Config
	HTTP     httpserver.Config
	Signup   signup.Config
	Sessions authsession.Config
	Redis    redis.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "onboardd"),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("onboardd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	var (
		store     authsession.Store
		checks    []httpserver.Check
		stopHooks []httpserver.Option
	)

	switch cfg.Sessions.Store {
	case authsession.StoreRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		store = authsession.NewRedisStore(client, cfg.Sessions.RedisPrefix)
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
		stopHooks = append(stopHooks, httpserver.WithStopHook(func(context.Context) error {
			return client.Close()
		}))
	case authsession.StoreMemory, "":
		mem := authsession.NewMemoryStore(5 * time.Minute)
		store = mem
		stopHooks = append(stopHooks, httpserver.WithStopHook(func(context.Context) error {
			return mem.Close()
		}))
	default:
		return fmt.Errorf("unknown session store %q: use %q or %q",
			cfg.Sessions.Store, authsession.StoreMemory, authsession.StoreRedis)
	}

	sessions := authsession.NewManager(store,
		append(cfg.Sessions.Options(), authsession.WithLogger(log))...)

	api, err := apiclient.NewFromConfig(cfg.API,
		apiclient.WithLogger(log),
		apiclient.WithTokenSource(sessions),
	)
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	svc, err := signup.NewFromConfig(cfg.Signup, api, sessions, signup.WithLogger(log))
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer, requestid.Middleware, clientip.Middleware, sessions.Middleware)
	r.Get("/health/live", httpserver.HealthCheckHandler(log))
	r.Get("/health/ready", httpserver.HealthCheckHandler(log, checks...))
	r.Mount("/", svc.Handle())

	opts := []httpserver.Option{
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(ctx context.Context) error {
			log.InfoContext(ctx, "signup service ready",
				slog.String("api", api.BaseURL()),
				slog.String("session_store", cfg.Sessions.Store),
			)
			return nil
		}),
		httpserver.WithStopHook(func(context.Context) error {
			return svc.Close()
		}),
	}
	server := httpserver.NewFromConfig(cfg.HTTP, append(opts, stopHooks...)...)

	return server.Run(ctx, r)
}
