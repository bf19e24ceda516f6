package models

// Chat represents a conversation. Membership is fixed at creation and
// the creator is always the first member.
type Chat struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	IsGroup     bool     `json:"isGroup"`
	CreatedBy   string   `json:"createdBy"`
	Members     []string `json:"members"`
	CreatedAt   int64    `json:"createdAt"` // Unix ms
	Theme       string   `json:"theme,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	LastMessage *Message `json:"lastMessage,omitempty"`
}

// HasMember reports whether userID belongs to the chat.
func (c *Chat) HasMember(userID string) bool {
	for _, id := range c.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// LastActivity returns the timestamp used to order a user's chat list:
// the last message's timestamp, or the creation time when the chat has
// no messages yet.
func (c *Chat) LastActivity() int64 {
	if c.LastMessage != nil {
		return c.LastMessage.Timestamp
	}
	return c.CreatedAt
}
