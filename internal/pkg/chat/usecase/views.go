package usecase

import (
	"time"

	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	userrepo "github.com/sehabur/bookmate-backend/internal/pkg/user/repository/port"
)

// MessageView is the wire shape of a message, used both by live pushes and
// REST responses.
type MessageView struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToMessageView(m chat.Message) MessageView {
	return MessageView{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Sender:    m.SenderID,
		Receiver:  m.ReceiverID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

// ConversationView is a conversation summary with the counterpart's public
// profile resolved inline, ready for list display.
type ConversationView struct {
	ChatID       string            `json:"chatId"`
	Participants [2]string         `json:"participants"`
	LastActivity time.Time         `json:"lastActivity"`
	LastText     string            `json:"lastText"`
	Unread       bool              `json:"unread"`
	Counterpart  *userrepo.Profile `json:"counterpart,omitempty"`
}
