// Package otpgate tracks email verification for one signup attempt.
//
// A Gate moves an email through unsent, sent and verified. A code can only be
// verified after one was sent to the same email, and changing the email
// starts over. Sends are throttled per email by a token bucket, so a resend
// inside the cooldown is refused with a *CooldownError carrying the remaining
// wait. Only one request runs at a time; a second concurrent call fails fast
// with ErrRequestInFlight instead of sending twice.
//
// Server failures are returned as-is so the caller can show the server's
// message. Nothing is retried.
package otpgate
