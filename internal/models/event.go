package models

// Pub/sub channels carrying realtime events. The store is authoritative;
// consumers treat these as at-most-once hints and re-fetch canonical
// state rather than trusting delta payloads blindly.
const (
	ChannelNewMessage     = "new_message"
	ChannelMessageUpdated = "message_updated"
	ChannelPresenceUpdate = "presence_update"
)

// Presence status values stored in the user_presence hash.
const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

// NewMessageEvent is published on ChannelNewMessage after a message is
// durably written.
type NewMessageEvent struct {
	Type    string  `json:"type"` // "new_message"
	Message Message `json:"message"`
}

// MessageUpdatedEvent is published on ChannelMessageUpdated after an
// edit or delete.
type MessageUpdatedEvent struct {
	Type    string  `json:"type"` // "edit" or "delete"
	Message Message `json:"message"`
}

// PresenceUpdateEvent is published on ChannelPresenceUpdate when a
// user's presence flag changes.
type PresenceUpdateEvent struct {
	Type   string `json:"type"` // "presence_update"
	UserID string `json:"userId"`
	Status string `json:"status"`
}
