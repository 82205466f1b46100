package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". Nil errors yield an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the emitting package under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records a named domain event under "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Email records an email address under "email".
func Email(email string) slog.Attr {
	return slog.String("email", email)
}

// FlowID records the signup flow identifier. Empty ids yield an empty Attr.
func FlowID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("flow_id", id)
}

// Step records the signup step number.
func Step(n int) slog.Attr {
	return slog.Int("step", n)
}

// State records a state machine state name.
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Level records a location hierarchy level.
func Level(name string) slog.Attr {
	return slog.String("level", name)
}

// StatusCode records an HTTP status code.
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// Duration records an elapsed duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Fields records the names of fields that failed validation.
func Fields(names []string) slog.Attr {
	return slog.Any("fields", names)
}
