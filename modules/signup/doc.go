// Package signup exposes the signup wizard, login and logout as a JSON API
// for browser and mobile front ends.
//
// Each wizard run is a flow held in an in-memory Registry and addressed by
// id. The front end edits the draft with PATCH, moves between steps with
// /next and /previous, drives email verification through /otp/*, fills the
// location cascade level by level and finally submits. The response to a
// successful submit carries the landing URL and the key of the auth session
// holding the new account's tokens; that key is sent back in the
// X-Session-Key header to log out.
//
// Errors use the handler package envelope: field errors are 422 with a
// field→messages map, rejections by the remote API are 400 with the
// server's own message, and an unreachable or failing API is 502.
package signup
