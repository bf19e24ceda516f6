package models

// DeletedPlaceholder replaces the content of tombstoned messages.
const DeletedPlaceholder = "This message has been deleted"

// Message represents a chat message stored as a JSON entry in the
// chat's per-chat list, newest at the head.
type Message struct {
	ID         string   `json:"id"` // ULID
	ChatID     string   `json:"chatId"`
	SenderID   string   `json:"senderId"`
	SenderName string   `json:"senderName"`
	Content    string   `json:"content"`
	Timestamp  int64    `json:"timestamp"` // Unix ms
	Edited     bool     `json:"edited,omitempty"`
	Deleted    bool     `json:"deleted,omitempty"`
	FileURL    string   `json:"fileUrl,omitempty"`
	FileName   string   `json:"fileName,omitempty"`
	FileType   string   `json:"fileType,omitempty"`
	ReadBy     []string `json:"readBy"` // always contains SenderID
}

// IsReadBy reports whether userID is in the read set.
func (m *Message) IsReadBy(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Tombstone soft-deletes the message in place: the content is replaced
// with a fixed placeholder and file fields are cleared. ReadBy is kept
// so late viewers can still mark it read.
func (m *Message) Tombstone() {
	m.Deleted = true
	m.Content = DeletedPlaceholder
	m.FileURL = ""
	m.FileName = ""
	m.FileType = ""
}
