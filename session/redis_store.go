package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rotateSessionScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SET", KEYS[2], data, "PX", ARGV[1])
return 1
`

var rotateSessionLua = redis.NewScript(rotateSessionScript)

// DefaultTTL is the key lifetime used when a RedisStore or MemoryStore is created
// with a non-positive ttl. It bounds storage, not session freshness.
const DefaultTTL = 48 * time.Hour

// RedisStore is a Redis-backed [Store]. Every write resets the key TTL, so an active
// session keeps its key alive while an abandoned one is evicted by Redis.
//
//	Performance: Load = 1 GET, Save = 1 SET, Touch = 1 SET XX, Rotate = 1 EVALSHA.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a [RedisStore] using prefix as the key namespace.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "ag"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

// Load fetches and decodes the record bound to id.
func (s *RedisStore) Load(ctx context.Context, id string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	r, err := Decode(data)
	if err != nil {
		// Unreadable blobs are treated as absent and cleared so the next login
		// starts clean.
		if delErr := s.redis.Del(ctx, s.key(id)).Err(); delErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, delErr)
		}
		return nil, ErrNotFound
	}

	return r, nil
}

// Save encodes r and writes it under id with the store TTL.
func (s *RedisStore) Save(ctx context.Context, id string, r *Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Touch rewrites r under id only while the key still exists.
func (s *RedisStore) Touch(ctx context.Context, id string, r *Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}

	ok, err := s.redis.SetXX(ctx, s.key(id), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete removes id. Deleting a missing key is a no-op.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Rotate atomically moves the blob at oldID to newID.
//
//	Security: old identifier stops resolving in the same script that binds the new one.
func (s *RedisStore) Rotate(ctx context.Context, oldID, newID string) error {
	if oldID == newID {
		return errors.New("rotate requires distinct identifiers")
	}
	err := rotateSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(oldID), s.key(newID)},
		s.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
