package signup

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/onboardkit/handler"
	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/authsession"
	"github.com/dmitrymomot/onboardkit/pkg/location"
	"github.com/dmitrymomot/onboardkit/pkg/otpgate"
	flow "github.com/dmitrymomot/onboardkit/pkg/signup"
	"github.com/dmitrymomot/onboardkit/pkg/statemachine"
)

var (
	ErrFlowNotFound = errors.New("signup: flow not found or expired")
	ErrTooManyFlows = errors.New("signup: too many signup flows in progress")
)

// MapError translates errors from the signup packages into HTTP errors.
// Validation errors pass through untouched; the handler package renders
// them as 422.
func MapError(err error) error {
	var cooldown *otpgate.CooldownError
	if errors.As(err, &cooldown) {
		return handler.ErrTooManyRequests.WithMessage(cooldown.Error())
	}

	if apiErr, ok := apiclient.AsAPIError(err); ok {
		if apiErr.IsClientError() {
			return handler.ErrBadRequest.WithMessage(apiErr.Error())
		}
		return handler.ErrBadGateway.WithMessage(apiErr.Error())
	}

	switch {
	case errors.Is(err, ErrFlowNotFound):
		return handler.ErrNotFound.WithMessage(err.Error())
	case errors.Is(err, ErrTooManyFlows):
		return handler.ErrServiceUnavailable.WithMessage(err.Error())

	case errors.Is(err, flow.ErrNotAtFinalStep),
		errors.Is(err, flow.ErrAlreadySubmitted),
		errors.Is(err, flow.ErrSubmitting),
		errors.Is(err, flow.ErrAccountCreated),
		errors.Is(err, otpgate.ErrCodeNotSent),
		errors.Is(err, otpgate.ErrAlreadyVerified),
		errors.Is(err, otpgate.ErrRequestInFlight),
		errors.Is(err, location.ErrSuperseded),
		statemachine.IsNoTransitionError(err):
		return handler.ErrConflict.WithMessage(err.Error())

	case errors.Is(err, location.ErrInvalidLevel), errors.Is(err, apiclient.ErrInvalidLevel):
		return handler.ErrNotFound.WithMessage(err.Error())

	case errors.Is(err, authsession.ErrSessionNotFound),
		errors.Is(err, authsession.ErrSessionExpired),
		errors.Is(err, authsession.ErrEmptyKey):
		return handler.ErrUnauthorized.WithMessage("not signed in")

	case errors.Is(err, apiclient.ErrRequestFailed), errors.Is(err, apiclient.ErrDecodeResponse):
		return handler.ErrBadGateway.WithMessage("the signup service is unavailable, please try again")

	case errors.Is(err, context.DeadlineExceeded):
		return handler.NewHTTPError(http.StatusGatewayTimeout, "request timed out")
	}
	return nil
}
