package apiclient

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidBaseURL = errors.New("apiclient: invalid base URL")
	ErrRequestFailed  = errors.New("apiclient: request failed")
	ErrDecodeResponse = errors.New("apiclient: failed to decode response")
	ErrInvalidLevel   = errors.New("apiclient: unknown location level")
	ErrMissingParent  = errors.New("apiclient: parent id is required")
	ErrEmptyEmail     = errors.New("apiclient: email is required")
)

// APIError is a non-2xx answer from the API. Message carries the server's
// text as-is so callers can show it without rewording.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Message
}

// IsClientError reports whether the server rejected the request itself.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
