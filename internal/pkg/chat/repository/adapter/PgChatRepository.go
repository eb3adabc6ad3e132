package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	repository "github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/port"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgChatRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (chat_id, participant_a, participant_b, last_activity, last_text, unread, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text
	`, c.ChatID, c.Participants[0], c.Participants[1], c.LastActivity, c.LastText, c.Unread, c.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) GetConversationByChatID(ctx context.Context, chatID string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	var c chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, chat_id, participant_a, participant_b, last_activity, last_text, unread, created_at
		FROM conversations
		WHERE chat_id = $1
	`, chatID).Scan(&c.ID, &c.ChatID, &c.Participants[0], &c.Participants[1], &c.LastActivity, &c.LastText, &c.Unread, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgChatRepository) ConversationsForUser(ctx context.Context, userID string) ([]chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, chat_id, participant_a, participant_b, last_activity, last_text, unread, created_at
		FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_activity DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	convs := make([]chat.Conversation, 0)
	for rows.Next() {
		var c chat.Conversation
		if err := rows.Scan(&c.ID, &c.ChatID, &c.Participants[0], &c.Participants[1], &c.LastActivity, &c.LastText, &c.Unread, &c.CreatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return convs, nil
}

func (r *PgChatRepository) UnreadConversationCount(ctx context.Context, userID string) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM conversations
		WHERE unread AND (participant_a = $1 OR participant_b = $1)
	`, userID).Scan(&n)
	return n, err
}

func (r *PgChatRepository) TouchConversation(ctx context.Context, chatID string, lastActivity time.Time, lastText string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET last_activity = $2, last_text = $3, unread = TRUE
		WHERE chat_id = $1
	`, chatID, lastActivity, lastText)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) MarkConversationRead(ctx context.Context, chatID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET unread = FALSE
		WHERE chat_id = $1
	`, chatID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgChatRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (chat_id, sender_id, receiver_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text
	`, m.ChatID, m.SenderID, m.ReceiverID, m.Text, m.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) MessagesByChatID(ctx context.Context, chatID string, limit int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, chat_id, sender_id, receiver_id, body, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]chat.Message, 0, limit)
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.ReceiverID, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}
