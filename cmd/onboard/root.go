package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/authsession"
	"github.com/dmitrymomot/onboardkit/pkg/config"
	"github.com/dmitrymomot/onboardkit/pkg/logger"
)

// cliConfig is read from the environment; flags override it.
type cliConfig struct {
	BaseURL     string        `env:"API_BASE_URL"`
	Timeout     time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"warn"`
	SessionFile string        `env:"ONBOARD_SESSION_FILE"`
}

var errNoBaseURL = errors.New("API base URL is not set: use --api or API_BASE_URL")

// app carries the dependencies shared by every subcommand.
type app struct {
	cfg      cliConfig
	in       *prompter
	out      io.Writer
	log      *slog.Logger
	api      *apiclient.Client
	sessions *authsession.Manager
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: newPrompter(in, out), out: out}

	var (
		baseURL     string
		sessionFile string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:           "onboard",
		Short:         "Sign up and sign in from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Load(&a.cfg); err != nil {
				return err
			}
			if baseURL != "" {
				a.cfg.BaseURL = baseURL
			}
			if sessionFile != "" {
				a.cfg.SessionFile = sessionFile
			}
			if logLevel != "" {
				a.cfg.LogLevel = logLevel
			}
			return a.init(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&baseURL, "api", "", "accounts API base URL (env API_BASE_URL)")
	cmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "where tokens are stored (env ONBOARD_SESSION_FILE)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newSignupCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
	)
	return cmd
}

func (a *app) init(stderr io.Writer) error {
	if a.cfg.BaseURL == "" {
		return errNoBaseURL
	}

	a.log = logger.New(
		logger.WithFormat(logger.FormatText),
		logger.WithOutput(stderr),
		logger.WithLevelName(a.cfg.LogLevel),
	)

	path := a.cfg.SessionFile
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("locate config dir: %w", err)
		}
		path = filepath.Join(dir, "onboard", "session.json")
	}
	a.sessions = authsession.NewManager(authsession.NewFileStore(path),
		authsession.WithDefaultKey(authsession.LocalKey),
		authsession.WithLogger(a.log),
	)

	api, err := apiclient.New(a.cfg.BaseURL,
		apiclient.WithTimeout(a.cfg.Timeout),
		apiclient.WithTokenSource(a.sessions),
		apiclient.WithLogger(a.log),
	)
	if err != nil {
		return err
	}
	a.api = api
	return nil
}
