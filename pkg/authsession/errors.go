package authsession

import "errors"

var (
	ErrSessionNotFound = errors.New("authsession.not_found")
	ErrSessionExpired  = errors.New("authsession.expired")
	ErrInvalidSession  = errors.New("authsession.invalid")
	ErrEmptyKey        = errors.New("authsession.empty_key")
	ErrNoStore         = errors.New("authsession.no_store")
	ErrStoreFailed     = errors.New("authsession.store_failed")
)
