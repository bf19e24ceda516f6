package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store wraps a Redis client with the key-value primitives the core
// depends on: strings, hashes, sets, lists and pub/sub. It is the sole
// owner of all persisted state; every read goes to Redis.
type Store struct {
	client     *redis.Client
	logger     zerolog.Logger
	configured bool
}

// New connects to Redis at redisURL. An empty URL yields an
// unconfigured store: every operation fails with ErrNotConfigured and
// the Safe* helpers return their fallback values, so the application
// can still boot and surface a contact-the-administrator message.
func New(ctx context.Context, redisURL string, logger zerolog.Logger) (*Store, error) {
	if redisURL == "" {
		return &Store{logger: logger}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{client: client, logger: logger, configured: true}, nil
}

// NewFromClient wraps an existing client. Used by tests with miniredis.
func NewFromClient(client *redis.Client, logger zerolog.Logger) *Store {
	return &Store{client: client, logger: logger, configured: true}
}

// Configured reports whether a Redis URL was provided at startup.
func (s *Store) Configured() bool {
	return s.configured
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.client.Ping(ctx).Err()
}

// Get returns the string value at key, or "" with found=false when the
// key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if !s.configured {
		return "", false, ErrNotConfigured
	}
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set writes a string value. A zero ttl means no expiry.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Del removes keys.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.client.Del(ctx, keys...).Err()
}

// HGet returns a hash field, or "" with found=false when absent.
func (s *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	if !s.configured {
		return "", false, ErrNotConfigured
	}
	val, err := s.client.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// HSet writes a hash field.
func (s *Store) HSet(ctx context.Context, key, field, value string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.client.HSet(ctx, key, field, value).Err()
}

// HDel removes hash fields.
func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.client.HDel(ctx, key, fields...).Err()
}

// HGetAll returns every field of a hash. A missing key yields an empty
// map, not an error.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	return s.client.HGetAll(ctx, key).Result()
}

// SAdd adds members to a set.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	vals := make([]interface{}, len(members))
	for i, m := range members {
		vals[i] = m
	}
	return s.client.SAdd(ctx, key, vals...).Err()
}

// SMembers returns every member of a set.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	return s.client.SMembers(ctx, key).Result()
}

// SRem removes members from a set.
func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	vals := make([]interface{}, len(members))
	for i, m := range members {
		vals[i] = m
	}
	return s.client.SRem(ctx, key, vals...).Err()
}

// LPush inserts values at the head of a list.
func (s *Store) LPush(ctx context.Context, key string, values ...string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return s.client.LPush(ctx, key, vals...).Err()
}

// LRange returns list entries from start to stop inclusive, head first.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	return s.client.LRange(ctx, key, start, stop).Result()
}

// LSet overwrites the list entry at index.
func (s *Store) LSet(ctx context.Context, key string, index int64, value string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.client.LSet(ctx, key, index, value).Err()
}

// LLen returns the length of a list.
func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	if !s.configured {
		return 0, ErrNotConfigured
	}
	return s.client.LLen(ctx, key).Result()
}

// ZAdd adds a member with a score to a sorted set.
func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// ZCard returns the cardinality of a sorted set.
func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	if !s.configured {
		return 0, ErrNotConfigured
	}
	return s.client.ZCard(ctx, key).Result()
}

// ZRemRangeByScore removes sorted-set members with scores in [min, max].
func (s *Store) ZRemRangeByScore(ctx context.Context, key, min, max string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.client.ZRemRangeByScore(ctx, key, min, max).Err()
}

// Expire sets a TTL on an existing key.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.client.Expire(ctx, key, ttl).Err()
}

// Publish sends a payload to a pub/sub channel.
func (s *Store) Publish(ctx context.Context, channel, payload string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.client.Publish(ctx, channel, payload).Err()
}

// Subscribe opens a pub/sub subscription on the given channels. The
// caller owns the returned subscription and must Close it.
func (s *Store) Subscribe(ctx context.Context, channels ...string) (*redis.PubSub, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	return s.client.Subscribe(ctx, channels...), nil
}
