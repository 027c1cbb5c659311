package model

import "time"

// SessionStatus labels a support-channel session.
type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionInactive SessionStatus = "inactive"
	SessionClosed   SessionStatus = "closed"
)

// LeadInfo is what little we know about the lead inside a channel.
// Sessions rebuilt after a restart carry partial information only.
type LeadInfo struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// ChannelSession tracks one private support channel for the process
// lifetime. Owned by the conversation registry; LastActivity is bumped
// on every inbound message.
type ChannelSession struct {
	ChannelID    int64         `json:"channelId"`
	Title        string        `json:"title"`
	LeadInfo     *LeadInfo     `json:"leadInfo,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	LastActivity time.Time     `json:"lastActivity"`
	Status       SessionStatus `json:"status"`
}
