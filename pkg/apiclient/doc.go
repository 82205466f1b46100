// Package apiclient is a typed client for the onboarding REST API.
//
// It covers the OTP endpoints, the email availability check, signup, login
// and the four-level location directory. Every call takes a context and is
// bounded by a per-request timeout. Failures come back as *APIError when the
// server answered with a non-2xx status, or wrap ErrRequestFailed when no
// response was received. Nothing is retried.
//
// Location lists are cached per (level, parent) and concurrent identical
// lookups share a single request.
//
//	client, err := apiclient.New("https://api.example.com",
//	    apiclient.WithTimeout(10*time.Second),
//	    apiclient.WithTokenSource(sessions),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := client.SendOTP(ctx, "a@b.com", "Ada"); err != nil {
//	    var apiErr *apiclient.APIError
//	    if errors.As(err, &apiErr) {
//	        // apiErr.Message is the server's own text
//	    }
//	}
package apiclient
