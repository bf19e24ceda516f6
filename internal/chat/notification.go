package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/parleychat/parley/internal/metrics"
	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/store"
)

// NotificationWindow is how many recent notifications are read per
// user: the unread count is derived from this window, never maintained
// as a separate counter.
const NotificationWindow = 20

// fanOut writes one unread notification per non-sender member. Entirely
// best-effort: a failed write is logged and the remaining members still
// get theirs.
func (s *Service) fanOut(ctx context.Context, chat *models.Chat, msg *models.Message) {
	content := msg.Content
	if msg.FileURL != "" {
		name := msg.FileName
		if name == "" {
			name = "File"
		}
		content = fmt.Sprintf("%s sent a file: %s", msg.SenderName, name)
	}

	for _, memberID := range chat.Members {
		if memberID == msg.SenderID {
			continue
		}
		n := models.Notification{
			ID:         ulid.Make().String(),
			UserID:     memberID,
			ChatID:     chat.ID,
			MessageID:  msg.ID,
			SenderName: msg.SenderName,
			Content:    content,
			Timestamp:  time.Now().UnixMilli(),
			Read:       false,
		}
		data, err := json.Marshal(n)
		if err != nil {
			continue
		}
		if err := s.store.LPush(ctx, store.UserNotificationsKey(memberID), string(data)); err != nil {
			s.logger.Warn().Err(err).
				Str("user_id", memberID).
				Str("message_id", msg.ID).
				Msg("notification write failed")
			continue
		}
		metrics.NotificationsFanned.Inc()
	}
}

// Notifications returns the user's most recent notifications, newest
// first. Corrupt entries are skipped.
func (s *Service) Notifications(ctx context.Context, userID string) ([]models.Notification, error) {
	entries, err := s.store.LRange(ctx, store.UserNotificationsKey(userID), 0, NotificationWindow-1)
	if err != nil {
		return nil, err
	}
	out := make([]models.Notification, 0, len(entries))
	for _, entry := range entries {
		var n models.Notification
		if err := json.Unmarshal([]byte(entry), &n); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("corrupt notification record")
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// UnreadCount is derived by scanning the notification window; there is
// no separate counter to drift out of sync.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	notifications, err := s.Notifications(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkNotificationRead flips every unread notification matching the
// message id. There should be at most one per (message, user) pair, but
// the scan tolerates duplicates.
func (s *Service) MarkNotificationRead(ctx context.Context, userID, messageID string) error {
	if userID == "" || messageID == "" {
		return ErrInvalidInput
	}
	key := store.UserNotificationsKey(userID)
	entries, err := s.store.LRange(ctx, key, 0, -1)
	if err != nil {
		return err
	}
	for i, entry := range entries {
		var n models.Notification
		if err := json.Unmarshal([]byte(entry), &n); err != nil {
			continue
		}
		if n.MessageID != messageID || n.Read {
			continue
		}
		n.Read = true
		data, err := json.Marshal(n)
		if err != nil {
			continue
		}
		if err := s.store.LSet(ctx, key, int64(i), string(data)); err != nil {
			return err
		}
	}
	return nil
}
