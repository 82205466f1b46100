// Package authsession keeps the token pair issued by signup or login.
//
// A Session is created when signup or login succeeds, read on every later
// authenticated request and deleted on logout. Nothing refreshes or rotates
// tokens. Sessions are addressed by a key: the BFF hands a random key to the
// browser, the terminal wizard uses a single fixed key.
//
// Three stores are provided:
//
//   - MemoryStore keeps sessions in process, with optional expiry.
//   - FileStore writes a JSON document readable only by the owner.
//   - RedisStore keeps one hash per session with an optional TTL.
//
// Manager ties a store to the session lifecycle and doubles as an
// apiclient.TokenSource, so API calls pick up the bearer token from the
// session in the request context or from the manager's default key.
//
//	mgr := authsession.NewManager(authsession.NewFileStore(path),
//	    authsession.WithDefaultKey(authsession.LocalKey))
//	client, _ := apiclient.New(baseURL, apiclient.WithTokenSource(mgr))
package authsession
