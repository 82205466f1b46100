package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/onboardkit/pkg/logger"
)

// ErrorMapper translates a domain error into an HTTPError or
// ValidationError. It returns nil when it does not recognise err.
type ErrorMapper func(err error) error

// ErrorInfo is the classification of an error before it is rendered.
type ErrorInfo struct {
	StatusCode int
	LogLevel   slog.Level
}

func classifyError(err error) ErrorInfo {
	info := ErrorInfo{StatusCode: http.StatusInternalServerError}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.StatusCode = httpErr.Code
	}
	if _, ok := asValidationError(err); ok {
		info.StatusCode = http.StatusUnprocessableEntity
	}

	info.LogLevel = slog.LevelError
	if info.StatusCode < http.StatusInternalServerError {
		info.LogLevel = slog.LevelWarn
	}
	return info
}

// NewErrorHandler returns an ErrorHandler that runs err through the mappers
// in order, logs it and renders a JSON error envelope. The original error is
// logged; only the mapped error is shown to the client.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		mapped := err
		for _, m := range mappers {
			if out := m(err); out != nil {
				mapped = out
				break
			}
		}

		info := classifyError(mapped)
		r := ctx.Request()
		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.Component("handler"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.StatusCode(info.StatusCode),
			logger.Error(err),
		)

		if renderErr := JSONError(mapped).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response",
				logger.Component("handler"),
				logger.Error(renderErr),
			)
		}
	}
}
