package authsession

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/logger"
)

// LocalKey is the fixed key used by single-user clients such as the CLI.
const LocalKey = "default"

// DefaultHeader carries the session key on BFF requests.
const DefaultHeader = "X-Session-Key"

// Manager handles the session lifecycle over a Store.
type Manager struct {
	store      Store
	ttl        time.Duration
	defaultKey string
	header     string
	now        func() time.Time
	newKey     func() string
	logger     *slog.Logger
}

var _ apiclient.TokenSource = (*Manager)(nil)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithTTL bounds how long saved sessions stay readable.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithDefaultKey makes Token fall back to the session under key when the
// context carries none.
func WithDefaultKey(key string) Option {
	return func(m *Manager) {
		m.defaultKey = key
	}
}

// WithHeader sets the request header read by Middleware.
func WithHeader(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.header = name
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a manager. It panics on a nil store, which is a wiring
// mistake.
func NewManager(store Store, opts ...Option) *Manager {
	if store == nil {
		panic(ErrNoStore)
	}
	m := &Manager{
		store:  store,
		header: DefaultHeader,
		now:    time.Now,
		newKey: uuid.NewString,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("authsession"))
	return m
}

// Create stores s under key. An empty key gets a fresh random one. The
// returned session carries its key.
func (m *Manager) Create(ctx context.Context, key string, s Session) (*Session, error) {
	if !s.Valid() {
		return nil, ErrInvalidSession
	}
	if key == "" {
		key = m.newKey()
	}
	s.Key = key
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now().UTC()
	}

	if err := m.store.Save(ctx, key, &s, m.ttl); err != nil {
		return nil, err
	}
	m.logger.DebugContext(ctx, "auth session created", slog.String("session_key", redact(key)))
	return &s, nil
}

// Get reads the session stored under key.
func (m *Manager) Get(ctx context.Context, key string) (*Session, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return m.store.Load(ctx, key)
}

// Invalidate deletes the session under key. Logging out twice is not an error.
func (m *Manager) Invalidate(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := m.store.Delete(ctx, key); err != nil {
		return err
	}
	m.logger.DebugContext(ctx, "auth session invalidated", slog.String("session_key", redact(key)))
	return nil
}

// Token returns the access token of the session in ctx, or of the default
// key. No session yields an empty token, so requests go out anonymously.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if s, ok := FromContext(ctx); ok {
		return s.AccessToken, nil
	}
	if m.defaultKey == "" {
		return "", nil
	}

	s, err := m.store.Load(ctx, m.defaultKey)
	switch {
	case err == nil:
		return s.AccessToken, nil
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
		return "", nil
	default:
		return "", err
	}
}

// KeyFromRequest extracts the session key from the configured header. A
// "Bearer " prefix is accepted.
func (m *Manager) KeyFromRequest(r *http.Request) string {
	value := strings.TrimSpace(r.Header.Get(m.header))
	return strings.TrimSpace(strings.TrimPrefix(value, "Bearer "))
}

// Middleware loads the session named by the request header into the context.
// Requests without a valid session pass through untouched.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.KeyFromRequest(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		s, err := m.store.Load(r.Context(), key)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func redact(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:8] + "***"
}
