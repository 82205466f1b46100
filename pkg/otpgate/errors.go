package otpgate

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCodeNotSent     = errors.New("otpgate: no code has been sent to this email")
	ErrResendTooSoon   = errors.New("otpgate: please wait before requesting another code")
	ErrRequestInFlight = errors.New("otpgate: a request is already in progress")
	ErrAlreadyVerified = errors.New("otpgate: email is already verified")
	ErrEmptyEmail      = errors.New("otpgate: email is required")
	ErrEmptyCode       = errors.New("otpgate: code is required")
)

// CooldownError is returned while the resend cooldown is running.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s (%ds remaining)", ErrResendTooSoon.Error(), int(e.Remaining.Round(time.Second)/time.Second))
}

func (e *CooldownError) Unwrap() error {
	return ErrResendTooSoon
}
