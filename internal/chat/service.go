package chat

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/store"
)

// DefaultMessageLimit is the message window returned when the caller
// does not ask for a specific size.
const DefaultMessageLimit = 50

// Service implements the chat and message store, notification fan-out
// and presence tracking on top of the key-value store. Mutations that
// rewrite a list entry by position are serialized per chat.
type Service struct {
	store  *store.Store
	logger zerolog.Logger
	chatMu *keyedMutex
}

// NewService creates a chat service.
func NewService(st *store.Store, logger zerolog.Logger) *Service {
	return &Service{store: st, logger: logger, chatMu: newKeyedMutex()}
}

// CreateChat creates a chat owned by creatorID. The creator is placed
// first in the member list and deduplicated if the caller included it.
func (s *Service) CreateChat(ctx context.Context, name string, isGroup bool, creatorID string, memberIDs []string) (*models.Chat, error) {
	if name == "" || creatorID == "" {
		return nil, ErrInvalidInput
	}

	members := []string{creatorID}
	seen := map[string]bool{creatorID: true}
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}

	chat := &models.Chat{
		ID:        uuid.NewString(),
		Name:      name,
		IsGroup:   isGroup,
		CreatedBy: creatorID,
		Members:   members,
		CreatedAt: time.Now().UnixMilli(),
		Theme:     "default",
	}

	if err := s.putChat(ctx, chat); err != nil {
		return nil, err
	}
	for _, memberID := range members {
		if err := s.store.SAdd(ctx, store.UserChatsKey(memberID), chat.ID); err != nil {
			return nil, err
		}
	}
	return chat, nil
}

// GetChat fetches a chat record.
func (s *Service) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	data, found, err := s.store.Get(ctx, store.ChatKey(chatID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	var chat models.Chat
	if err := json.Unmarshal([]byte(data), &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// SettingsUpdate holds the mutable chat fields. Nil pointers leave the
// field unchanged.
type SettingsUpdate struct {
	Name  *string
	Theme *string
	Icon  *string
}

// UpdateSettings applies a settings change. Any member may update a
// direct chat; group chat settings are restricted to the creator.
func (s *Service) UpdateSettings(ctx context.Context, chatID string, upd SettingsUpdate, userID string) (*models.Chat, error) {
	chat, err := s.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasMember(userID) {
		return nil, ErrForbidden
	}
	if chat.IsGroup && chat.CreatedBy != userID {
		return nil, ErrForbidden
	}

	if upd.Name != nil && *upd.Name != "" {
		chat.Name = *upd.Name
	}
	if upd.Theme != nil {
		chat.Theme = *upd.Theme
	}
	if upd.Icon != nil {
		chat.Icon = *upd.Icon
	}

	if err := s.putChat(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// UserChats returns the user's chats ordered by most recent activity:
// last message timestamp, falling back to creation time. Chats whose
// records have gone missing or corrupt are skipped.
func (s *Service) UserChats(ctx context.Context, userID string) ([]models.Chat, error) {
	chatIDs, err := s.store.SMembers(ctx, store.UserChatsKey(userID))
	if err != nil {
		return nil, err
	}

	chats := make([]models.Chat, 0, len(chatIDs))
	for _, chatID := range chatIDs {
		chat, err := s.GetChat(ctx, chatID)
		if err != nil {
			s.logger.Warn().Err(err).Str("chat_id", chatID).Msg("skipping unreadable chat")
			continue
		}
		chats = append(chats, *chat)
	}

	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].LastActivity() > chats[j].LastActivity()
	})
	return chats, nil
}

func (s *Service) putChat(ctx context.Context, chat *models.Chat) error {
	data, err := json.Marshal(chat)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, store.ChatKey(chat.ID), string(data), 0)
}
