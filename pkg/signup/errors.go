package signup

import "errors"

var (
	ErrInvalidDraft     = errors.New("signup: invalid draft")
	ErrNotAtFinalStep   = errors.New("signup: all steps must be completed before submitting")
	ErrAlreadySubmitted = errors.New("signup: flow has already been submitted")
	ErrSubmitting       = errors.New("signup: submission in progress")
	ErrAccountCreated   = errors.New("signup: account already created, submit again to finish signing in")
	ErrInvalidStep      = errors.New("signup: invalid step")
)
