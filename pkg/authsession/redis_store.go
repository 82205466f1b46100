package authsession

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session hashes.
const DefaultRedisPrefix = "onboard:session:"

// RedisStore keeps each session in a hash whose fields are the storage keys.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Save(ctx context.Context, key string, s *Session, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if !s.Valid() {
		return ErrInvalidSession
	}

	fields := s.Fields()
	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	rkey := r.prefix + key
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, rkey)
		pipe.HSet(ctx, rkey, values)
		if ttl > 0 {
			pipe.Expire(ctx, rkey, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, key string) (*Session, error) {
	fields, err := r.client.HGetAll(ctx, r.prefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}
	return sessionFromFields(key, fields)
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}
	return nil
}
