package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "sessions"

// RedisStore persists session records in Redis as JSON, relying on Redis
// key expiration for TTL enforcement. The client should be obtained from
// pkg/redis.Open.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures the RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix used to namespace session records.
// Default: "sessions".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed session store.
//
// Example:
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"))
//	if err != nil { ... }
//	store := sessions.NewRedisStore(client, sessions.WithPrefix("app:sess"))
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: defaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load retrieves the record stored under token.
// Returns ErrNotFound if the key does not exist (expired keys are removed
// by Redis itself).
func (s *RedisStore) Load(ctx context.Context, token string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}

	return &rec, nil
}

// Save persists the record under token with the given TTL.
// A non-positive TTL stores the record without expiration.
func (s *RedisStore) Save(ctx context.Context, token string, rec *Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}

	// Redis interprets 0 as no expiration.
	redisTTL := max(ttl, 0)

	return s.client.Set(ctx, s.key(token), data, redisTTL).Err()
}

// Delete removes the record stored under token. Idempotent.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *RedisStore) key(token string) string {
	return s.prefix + ":" + token
}

var _ Store = (*RedisStore)(nil)
