package domain

import "time"

// Message is a direct message between two users.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	RecipientID    string    `json:"recipientId,omitempty"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

// EntityID implements Entity.
func (m Message) EntityID() string { return m.ID }

// ChannelMessage is a message posted to a team channel.
type ChannelMessage struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channelId"`
	TeamID     string    `json:"teamId,omitempty"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EntityID implements Entity.
func (m ChannelMessage) EntityID() string { return m.ID }
