package repository

import (
	"context"
	"errors"
	"time"

	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
)

// ErrNotFound is returned by adapters when the referenced conversation does
// not exist. Zero-result list queries are not errors.
var ErrNotFound = errors.New("chat repository: not found")

// ChatRepository defines persistence operations for the chat domain.
//
// Message insert and conversation update are deliberately separate calls:
// each is a single atomic statement on its own table and no transaction spans
// the two. A crash between them leaves a stale conversation preview, never a
// lost message.
type ChatRepository interface {
	// CreateConversation persists a new conversation and returns its storage id.
	CreateConversation(ctx context.Context, c chat.Conversation) (string, error)

	// GetConversationByChatID loads a conversation by its opaque chat id.
	// Returns ErrNotFound when absent.
	GetConversationByChatID(ctx context.Context, chatID string) (*chat.Conversation, error)

	// ConversationsForUser returns every conversation the user participates
	// in, sorted by last activity descending. Zero results is an empty slice.
	ConversationsForUser(ctx context.Context, userID string) ([]chat.Conversation, error)

	// UnreadConversationCount counts the user's conversations flagged unread.
	UnreadConversationCount(ctx context.Context, userID string) (int, error)

	// TouchConversation records new activity on the thread: last activity
	// time, message preview, and the unread flag set. Last write wins when
	// two sends race; only the denormalized preview is affected.
	TouchConversation(ctx context.Context, chatID string, lastActivity time.Time, lastText string) error

	// MarkConversationRead clears the unread flag. Idempotent.
	MarkConversationRead(ctx context.Context, chatID string) error

	// SaveMessage appends a message and returns its storage id.
	SaveMessage(ctx context.Context, m chat.Message) (string, error)

	// MessagesByChatID returns up to limit messages for the chat, newest
	// first. A non-positive limit falls back to 50.
	MessagesByChatID(ctx context.Context, chatID string, limit int) ([]chat.Message, error)
}
