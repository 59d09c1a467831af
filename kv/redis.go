package kv

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments a counter, applying the TTL only on the increment
// that creates it. Later increments never reset the window.
var incrScript = redis.NewScript(`
local created = redis.call("EXISTS", KEYS[1]) == 0
local v = redis.call("INCRBY", KEYS[1], ARGV[1])
if created and tonumber(ARGV[2]) > 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return v
`)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	// Default: "localhost:6379"
	Addr string

	// Password is the optional server password.
	Password string

	// DB is the database index.
	DB int

	// DialTimeout bounds the initial connection attempt.
	// Default: 5 seconds
	DialTimeout time.Duration
}

// Redis implements Store on top of a Redis server.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis connects to Redis and verifies the connection with a ping.
// The returned store holds the connection for the life of the process;
// call Close on shutdown.
func NewRedis(ctx context.Context, config RedisConfig) (*Redis, error) {
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	s := &Redis{client: client}
	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// NewRedisWithClient wraps an existing client. The caller keeps ownership of
// the client's lifecycle in this case.
func NewRedisWithClient(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Get retrieves a value. Returns (nil, false, nil) on miss.
func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores a value with the given TTL.
func (s *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes keys.
func (s *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Exists reports whether the key is present.
func (s *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Increment adds amount to the counter at key. The TTL applies only when
// this increment creates the counter.
func (s *Redis) Increment(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	n, err := incrScript.Run(ctx, s.client, []string{key}, amount, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Decrement subtracts amount from the counter at key.
func (s *Redis) Decrement(ctx context.Context, key string, amount int64) (int64, error) {
	return s.client.DecrBy(ctx, key, amount).Result()
}

// SetNX stores a value only if the key is absent.
func (s *Redis) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

// TTL returns the remaining lifetime of a key.
func (s *Redis) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	switch {
	case d == -2:
		// Key does not exist.
		return 0, false, nil
	case d == -1:
		// Key exists without expiry.
		return 0, true, nil
	default:
		return d, true, nil
	}
}

// Expire sets a new TTL on an existing key.
func (s *Redis) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.Expire(ctx, key, ttl).Result()
}

// DeletePattern removes all keys matching the glob pattern.
//
// This is an O(keys) scan; the versioned invalidation layer exists so that
// hot paths never need it.
func (s *Redis) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	var removed int64
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			n, err := s.client.Del(ctx, batch...).Result()
			removed += n
			if err != nil {
				return removed, err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	if len(batch) > 0 {
		n, err := s.client.Del(ctx, batch...).Result()
		removed += n
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Keys returns all keys matching the glob pattern.
func (s *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// Size returns the number of keys in the database.
func (s *Redis) Size(ctx context.Context) (int64, error) {
	return s.client.DBSize(ctx).Result()
}

// ConsumeOnce atomically reads and deletes a key via GETDEL.
func (s *Redis) ConsumeOnce(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Ping verifies connectivity.
func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close disconnects from the server.
func (s *Redis) Close() error {
	return s.client.Close()
}

// Ensure Redis implements Store
var _ Store = (*Redis)(nil)
