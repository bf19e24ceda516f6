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

// SendMessageInput carries a validated send request. Either Content or
// FileURL must be present.
type SendMessageInput struct {
	ChatID     string
	SenderID   string
	SenderName string
	Content    string
	FileURL    string
	FileName   string
	FileType   string
}

// SendMessage appends a message to the chat's log. The list push is the
// durability boundary: once it succeeds the message is returned even if
// the last-message cache refresh, the notification fan-out or the event
// publish fails. The sender is always in the read set.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	if in.Content == "" && in.FileURL == "" {
		return nil, ErrInvalidInput
	}
	if in.ChatID == "" || in.SenderID == "" {
		return nil, ErrInvalidInput
	}

	chat, err := s.GetChat(ctx, in.ChatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasMember(in.SenderID) {
		return nil, ErrForbidden
	}

	msg := &models.Message{
		ID:         ulid.Make().String(),
		ChatID:     in.ChatID,
		SenderID:   in.SenderID,
		SenderName: in.SenderName,
		Content:    in.Content,
		Timestamp:  time.Now().UnixMilli(),
		FileURL:    in.FileURL,
		FileName:   in.FileName,
		FileType:   in.FileType,
		ReadBy:     []string{in.SenderID},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if err := s.store.LPush(ctx, store.ChatMessagesKey(in.ChatID), string(data)); err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	// Everything below is best-effort.
	chat.LastMessage = msg
	if err := s.putChat(ctx, chat); err != nil {
		s.logger.Warn().Err(err).Str("chat_id", in.ChatID).Msg("last-message cache refresh failed")
	}

	s.fanOut(ctx, chat, msg)

	if payload, err := json.Marshal(models.NewMessageEvent{Type: "new_message", Message: *msg}); err == nil {
		s.store.SafePublish(ctx, models.ChannelNewMessage, string(payload))
	}

	return msg, nil
}

// Messages returns up to limit messages of a chat, oldest first. The
// log is stored newest-at-head, so the fetched window is reversed.
// A corrupt stored entry degrades to a placeholder message rather than
// failing the whole window.
func (s *Service) Messages(ctx context.Context, chatID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	entries, err := s.store.LRange(ctx, store.ChatMessagesKey(chatID), 0, int64(limit)-1)
	if err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(entries))
	for _, entry := range entries {
		var msg models.Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			s.logger.Warn().Err(err).Str("chat_id", chatID).Msg("corrupt message record")
			msg = models.Message{
				ID:         "error",
				ChatID:     chatID,
				Content:    "Error loading message",
				SenderName: "Unknown",
				Timestamp:  time.Now().UnixMilli(),
			}
		}
		msgs = append(msgs, msg)
	}

	// Reverse to oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// EditMessage replaces a message's content. Only the sender may edit.
func (s *Service) EditMessage(ctx context.Context, messageID, chatID, newContent, userID string) (*models.Message, error) {
	if newContent == "" {
		return nil, ErrInvalidInput
	}

	unlock := s.chatMu.Lock(chatID)
	defer unlock()

	msg, index, err := s.findMessage(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, ErrForbidden
	}

	msg.Content = newContent
	msg.Edited = true

	if err := s.writeBack(ctx, chatID, index, msg); err != nil {
		return nil, err
	}
	s.refreshLastMessage(ctx, chatID, msg)
	s.publishUpdate(ctx, "edit", msg)
	return msg, nil
}

// DeleteMessage tombstones a message: content is replaced with a fixed
// placeholder, file fields are cleared, the record stays in the log.
// Only the sender may delete.
func (s *Service) DeleteMessage(ctx context.Context, messageID, chatID, userID string) (*models.Message, error) {
	unlock := s.chatMu.Lock(chatID)
	defer unlock()

	msg, index, err := s.findMessage(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, ErrForbidden
	}

	msg.Tombstone()

	if err := s.writeBack(ctx, chatID, index, msg); err != nil {
		return nil, err
	}
	s.refreshLastMessage(ctx, chatID, msg)
	s.publishUpdate(ctx, "delete", msg)
	return msg, nil
}

// MarkMessageRead adds userID to the message's read set and flips the
// matching notification. Idempotent: a replay with the same pair leaves
// the state unchanged and succeeds. Tombstoned messages can still be
// marked read by late viewers.
func (s *Service) MarkMessageRead(ctx context.Context, messageID, chatID, userID string) (*models.Message, error) {
	unlock := s.chatMu.Lock(chatID)
	defer unlock()

	msg, index, err := s.findMessage(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.IsReadBy(userID) {
		return msg, nil
	}

	msg.ReadBy = append(msg.ReadBy, userID)
	if err := s.writeBack(ctx, chatID, index, msg); err != nil {
		return nil, err
	}

	if err := s.MarkNotificationRead(ctx, userID, messageID); err != nil {
		s.logger.Warn().Err(err).
			Str("user_id", userID).
			Str("message_id", messageID).
			Msg("notification read-mark failed")
	}
	return msg, nil
}

// findMessage scans the chat's log for a message id and returns the
// message with its positional index. Callers must hold the chat lock
// for the duration of any write back.
func (s *Service) findMessage(ctx context.Context, chatID, messageID string) (*models.Message, int64, error) {
	entries, err := s.store.LRange(ctx, store.ChatMessagesKey(chatID), 0, -1)
	if err != nil {
		return nil, 0, err
	}
	for i, entry := range entries {
		var msg models.Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			continue
		}
		if msg.ID == messageID {
			return &msg, int64(i), nil
		}
	}
	return nil, 0, ErrNotFound
}

func (s *Service) writeBack(ctx context.Context, chatID string, index int64, msg *models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := s.store.LSet(ctx, store.ChatMessagesKey(chatID), index, string(data)); err != nil {
		return fmt.Errorf("writing back message %s: %w", msg.ID, err)
	}
	return nil
}

// refreshLastMessage keeps the chat's cached last message in sync with
// an in-place mutation. Best-effort.
func (s *Service) refreshLastMessage(ctx context.Context, chatID string, msg *models.Message) {
	chat, err := s.GetChat(ctx, chatID)
	if err != nil {
		s.logger.Warn().Err(err).Str("chat_id", chatID).Msg("last-message cache refresh failed")
		return
	}
	if chat.LastMessage == nil || chat.LastMessage.ID != msg.ID {
		return
	}
	chat.LastMessage = msg
	if err := s.putChat(ctx, chat); err != nil {
		s.logger.Warn().Err(err).Str("chat_id", chatID).Msg("last-message cache refresh failed")
	}
}

func (s *Service) publishUpdate(ctx context.Context, kind string, msg *models.Message) {
	payload, err := json.Marshal(models.MessageUpdatedEvent{Type: kind, Message: *msg})
	if err != nil {
		return
	}
	s.store.SafePublish(ctx, models.ChannelMessageUpdated, string(payload))
}
