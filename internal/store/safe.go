package store

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by every operation when no Redis URL was
// provided at startup.
var ErrNotConfigured = errors.New("store: redis is not configured")

// Best-effort wrappers. Side effects like notification writes, presence
// updates and event publishes must never abort the primary operation:
// these log the failure and return the fallback instead of an error.

// SafeGet is a best-effort Get.
func (s *Store) SafeGet(ctx context.Context, key, fallback string) string {
	val, found, err := s.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("store get failed, using fallback")
		return fallback
	}
	if !found {
		return fallback
	}
	return val
}

// SafeLRange is a best-effort LRange returning an empty slice on failure.
func (s *Store) SafeLRange(ctx context.Context, key string, start, stop int64) []string {
	vals, err := s.LRange(ctx, key, start, stop)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("store lrange failed, using fallback")
		return nil
	}
	return vals
}

// SafeHGetAll is a best-effort HGetAll returning an empty map on failure.
func (s *Store) SafeHGetAll(ctx context.Context, key string) map[string]string {
	vals, err := s.HGetAll(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("store hgetall failed, using fallback")
		return map[string]string{}
	}
	return vals
}

// SafePublish is a best-effort Publish.
func (s *Store) SafePublish(ctx context.Context, channel, payload string) {
	if err := s.Publish(ctx, channel, payload); err != nil {
		s.logger.Warn().Err(err).Str("channel", channel).Msg("publish failed, event dropped")
	}
}
