package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("redis: invalid connection URL")
	ErrRedisNotReady                = errors.New("redis: server did not answer before the connect deadline")
	ErrEmptyConnectionURL           = errors.New("redis: REDIS_URL is empty")
	ErrHealthcheckFailed            = errors.New("redis: ping failed")
)
