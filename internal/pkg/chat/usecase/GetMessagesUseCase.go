package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	repository "github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/port"
)

// GetMessagesInput carries parameters to fetch a chat's history.
type GetMessagesInput struct {
	ChatID   string
	CallerID string
	Limit    int
}

// GetMessagesUseCase fetches the most recent messages for a conversation,
// newest first.
type GetMessagesUseCase struct {
	Repo repository.ChatRepository
}

func NewGetMessagesUseCase(repo repository.ChatRepository) *GetMessagesUseCase {
	return &GetMessagesUseCase{Repo: repo}
}

func (uc *GetMessagesUseCase) Execute(ctx context.Context, in GetMessagesInput) ([]chat.Message, error) {
	if in.ChatID == "" {
		return nil, fmt.Errorf("chatId is required")
	}

	// Distinguish "unknown chat" from "chat with no messages yet".
	conv, err := uc.Repo.GetConversationByChatID(ctx, in.ChatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.HasParticipant(in.CallerID) {
		return nil, chat.ErrNotParticipant
	}

	msgs, err := uc.Repo.MessagesByChatID(ctx, in.ChatID, in.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
