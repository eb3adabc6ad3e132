package adapter

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	repository "github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/port"
)

// MemChatRepository is an in-memory implementation of the chat repository
// port, used by tests and local experiments. It mirrors the postgres
// adapter's observable behavior, including last-write-wins on the
// conversation preview.
type MemChatRepository struct {
	mu            sync.Mutex
	conversations map[string]*chat.Conversation // keyed by chat id
	messages      map[string][]chat.Message     // keyed by chat id, append order
	nextID        int

	// FailWrites makes SaveMessage fail, to exercise abort paths in tests.
	FailWrites error
}

func NewMemChatRepository() *MemChatRepository {
	return &MemChatRepository{
		conversations: make(map[string]*chat.Conversation),
		messages:      make(map[string][]chat.Message),
	}
}

var _ repository.ChatRepository = (*MemChatRepository)(nil)

func (r *MemChatRepository) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = strconv.Itoa(r.nextID)
	r.conversations[c.ChatID] = &c
	return c.ID, nil
}

func (r *MemChatRepository) GetConversationByChatID(ctx context.Context, chatID string) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[chatID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemChatRepository) ConversationsForUser(ctx context.Context, userID string) ([]chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	convs := make([]chat.Conversation, 0)
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			convs = append(convs, *c)
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastActivity.After(convs[j].LastActivity)
	})
	return convs, nil
}

func (r *MemChatRepository) UnreadConversationCount(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.conversations {
		if c.Unread && c.HasParticipant(userID) {
			n++
		}
	}
	return n, nil
}

func (r *MemChatRepository) TouchConversation(ctx context.Context, chatID string, lastActivity time.Time, lastText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[chatID]
	if !ok {
		return repository.ErrNotFound
	}
	c.LastActivity = lastActivity
	c.LastText = lastText
	c.Unread = true
	return nil
}

func (r *MemChatRepository) MarkConversationRead(ctx context.Context, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[chatID]
	if !ok {
		return repository.ErrNotFound
	}
	c.Unread = false
	return nil
}

func (r *MemChatRepository) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites != nil {
		return "", r.FailWrites
	}
	r.nextID++
	m.ID = strconv.Itoa(r.nextID)
	r.messages[m.ChatID] = append(r.messages[m.ChatID], m)
	return m.ID, nil
}

func (r *MemChatRepository) MessagesByChatID(ctx context.Context, chatID string, limit int) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	all := r.messages[chatID]
	msgs := make([]chat.Message, 0, limit)
	for i := len(all) - 1; i >= 0 && len(msgs) < limit; i-- {
		msgs = append(msgs, all[i])
	}
	return msgs, nil
}
