package chat

import (
	"context"
	"encoding/json"

	"github.com/parleychat/parley/internal/metrics"
	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/store"
)

// SetPresence records a user's online flag, last-write-wins, and
// publishes a best-effort presence event. There is no timeout eviction:
// a client that dies without logging out stays "online" until another
// write overwrites the flag.
func (s *Service) SetPresence(ctx context.Context, userID string, online bool) error {
	status := models.PresenceOffline
	if online {
		status = models.PresenceOnline
	}
	if err := s.store.HSet(ctx, store.KeyPresence, userID, status); err != nil {
		return err
	}
	metrics.PresenceUpdates.Inc()

	payload, err := json.Marshal(models.PresenceUpdateEvent{
		Type:   "presence_update",
		UserID: userID,
		Status: status,
	})
	if err == nil {
		s.store.SafePublish(ctx, models.ChannelPresenceUpdate, string(payload))
	}
	return nil
}

// Presence reports whether a user is flagged online. Unknown users are
// offline.
func (s *Service) Presence(ctx context.Context, userID string) (bool, error) {
	status, found, err := s.store.HGet(ctx, store.KeyPresence, userID)
	if err != nil {
		return false, err
	}
	return found && status == models.PresenceOnline, nil
}

// PresenceBulk reports online flags for a batch of users in one hash
// read.
func (s *Service) PresenceBulk(ctx context.Context, userIDs []string) (map[string]bool, error) {
	all, err := s.store.HGetAll(ctx, store.KeyPresence)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		out[id] = all[id] == models.PresenceOnline
	}
	return out, nil
}
