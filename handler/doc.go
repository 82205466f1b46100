// Package handler turns typed request handlers into http.HandlerFunc values.
//
// A HandlerFunc receives a Context and a request value populated by the
// configured binders, and returns a Response. Responses are JSON envelopes
// of the form {"data": ..., "meta": ..., "error": {...}}:
//
//	http.Handle("POST /signup/{id}/otp/verify", handler.Wrap(verify,
//		handler.WithBinders[verifyRequest](binder.JSON()),
//		handler.WithErrorHandler[verifyRequest](handler.NewErrorHandler(log, mapSignupError)),
//	))
//
// Errors are rendered by status: ValidationError becomes 422 with a
// field→messages map, HTTPError uses its own code and message, and anything
// else is a 500 whose text is logged but not sent to the client.
package handler
