package chat

import (
	"strings"
	"time"
)

// Message is an immutable log entry in a conversation. Messages are
// append-only; nothing in the system ever mutates or deletes one.
type Message struct {
	ID         string    `db:"id"`
	ChatID     string    `db:"chat_id"`
	SenderID   string    `db:"sender_id"`
	ReceiverID string    `db:"receiver_id"`
	Text       string    `db:"text"`
	CreatedAt  time.Time `db:"created_at"`
}

// NewMessage validates and normalizes a message ready to persist.
func NewMessage(m Message) (*Message, error) {
	if m.ChatID == "" || m.SenderID == "" || m.ReceiverID == "" {
		return nil, ErrMissingReference
	}

	m.Text = strings.TrimSpace(m.Text)
	if m.Text == "" {
		return nil, ErrEmptyMessage
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	return &m, nil
}
