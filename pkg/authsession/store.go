package authsession

import (
	"context"
	"time"
)

// Store persists sessions by key.
type Store interface {
	// Save writes s under key, replacing any previous session. A positive ttl
	// bounds how long the session stays readable.
	Save(ctx context.Context, key string, s *Session, ttl time.Duration) error

	// Load returns ErrSessionNotFound when nothing is stored under key.
	Load(ctx context.Context, key string) (*Session, error)

	// Delete is a no-op for unknown keys.
	Delete(ctx context.Context, key string) error
}
