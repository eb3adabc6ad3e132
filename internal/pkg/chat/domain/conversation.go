package chat

import (
	"errors"
	"time"
)

// Domain-level errors for chat behaviors
var (
	ErrNotParticipant   = errors.New("chat: user is not a participant in the conversation")
	ErrBadParticipants  = errors.New("chat: a conversation needs exactly two distinct participants")
	ErrEmptyMessage     = errors.New("chat: message text is empty")
	ErrMissingReference = errors.New("chat: chat id, sender and receiver are required")
)

// Conversation is the durable summary of a two-party thread. The messages
// themselves are stored separately and reference it by ChatID.
//
// ChatID is an opaque, globally unique identifier handed out when the
// conversation is created; it is independent of the storage key so clients
// never couple to row ids.
type Conversation struct {
	ID           string    `db:"id"`
	ChatID       string    `db:"chat_id"`
	Participants [2]string `db:"-"`
	LastActivity time.Time `db:"last_activity"`
	LastText     string    `db:"last_text"`
	Unread       bool      `db:"unread"`
	CreatedAt    time.Time `db:"created_at"`
}

// NewConversation validates the two-participant invariant and stamps the
// creation time. The caller supplies the ChatID.
func NewConversation(chatID string, a, b string, now time.Time) (*Conversation, error) {
	if chatID == "" {
		return nil, ErrMissingReference
	}
	if a == "" || b == "" || a == b {
		return nil, ErrBadParticipants
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &Conversation{
		ChatID:       chatID,
		Participants: [2]string{a, b},
		LastActivity: now,
		CreatedAt:    now,
	}, nil
}

// HasParticipant tells whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.Participants[0] == userID || c.Participants[1] == userID)
}

// Counterpart returns the other party of the conversation.
func (c *Conversation) Counterpart(userID string) (string, bool) {
	switch userID {
	case c.Participants[0]:
		return c.Participants[1], true
	case c.Participants[1]:
		return c.Participants[0], true
	}
	return "", false
}
