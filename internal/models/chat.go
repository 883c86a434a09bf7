package models

import "time"

// Message is a direct message between two users.
type Message struct {
	ID         string    `json:"id" yaml:"id"`
	SenderID   string    `json:"senderId" yaml:"senderId"`
	ReceiverID string    `json:"receiverId" yaml:"receiverId"`
	Content    string    `json:"content" yaml:"content"`
	ImageURL   string    `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
	Read       bool      `json:"read" yaml:"read"`
}

// Chat is a conversation between participants with its message history.
type Chat struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	LastMessage  *Message  `json:"lastMessage"`
	Messages     []Message `json:"messages"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of c.
func (c Chat) Clone() Chat {
	c.Participants = cloneIDs(c.Participants)
	if c.LastMessage != nil {
		m := *c.LastMessage
		c.LastMessage = &m
	}
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	c.Messages = msgs
	return c
}
