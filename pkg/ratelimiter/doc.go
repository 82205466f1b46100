// Package ratelimiter implements a token bucket keyed by arbitrary strings.
//
// onboardkit uses a bucket of capacity one to throttle OTP resends per email
// address: the first Allow consumes the only token, and the next one is
// refused until the refill interval has elapsed.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	cooldown, _ := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       1,
//		RefillRate:     1,
//		RefillInterval: time.Minute,
//	})
//
//	res, _ := cooldown.Allow(ctx, "otp:"+email)
//	if !res.Allowed() {
//		wait := res.RetryAfter()
//	}
//
// Denied requests do not consume tokens, so a caller hammering the limiter
// does not extend its own wait.
package ratelimiter
