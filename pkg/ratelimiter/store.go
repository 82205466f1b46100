package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state per key. MemoryStore is the in-process
// implementation; the signup service shares one between the resend cooldown
// and the flow start limit.
type Store interface {
	// ConsumeTokens takes tokens from the bucket under key, refilling it
	// first according to config. If the bucket holds fewer than tokens it is
	// left untouched and remaining reports the shortfall as a negative number.
	// resetAt is when the bucket will be full again.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset forgets the bucket under key, so the next call starts full.
	Reset(ctx context.Context, key string) error
}
