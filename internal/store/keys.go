package store

import "fmt"

// Key layout. Users live in a single hash keyed by username with a
// secondary id index hash; everything else hangs off chat or user IDs.
const (
	// KeyUsers is the hash of username -> User JSON.
	KeyUsers = "users"
	// KeyUserIDs is the index hash of user id -> username.
	KeyUserIDs = "user_ids"
	// KeyPresence is the hash of user id -> "online"|"offline".
	KeyPresence = "user_presence"
)

// SessionKey returns the key holding a session's user id.
func SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// ChatKey returns the key holding a chat record.
func ChatKey(chatID string) string {
	return fmt.Sprintf("chat:%s", chatID)
}

// ChatMessagesKey returns the key of a chat's message list, newest at
// the head.
func ChatMessagesKey(chatID string) string {
	return fmt.Sprintf("chat:%s:messages", chatID)
}

// UserChatsKey returns the key of a user's chat membership set.
func UserChatsKey(userID string) string {
	return fmt.Sprintf("user:%s:chats", userID)
}

// UserNotificationsKey returns the key of a user's notification list,
// newest at the head.
func UserNotificationsKey(userID string) string {
	return fmt.Sprintf("user:%s:notifications", userID)
}
