package models

// Notification is created once per (message, non-sender member) pair
// and lives in the recipient's notification list. It is never deleted;
// the only mutation is flipping Read to true.
type Notification struct {
	ID         string `json:"id"` // ULID
	UserID     string `json:"userId"`
	ChatID     string `json:"chatId"`
	MessageID  string `json:"messageId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"` // Unix ms
	Read       bool   `json:"read"`
}
