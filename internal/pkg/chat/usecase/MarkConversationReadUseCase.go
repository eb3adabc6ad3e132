package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	repository "github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/port"
)

// MarkConversationReadInput names the conversation and the caller asking to
// clear its unread flag.
type MarkConversationReadInput struct {
	ChatID   string
	CallerID string
}

// MarkConversationReadUseCase clears the unread flag. Idempotent: repeated
// calls after the first are no-ops.
type MarkConversationReadUseCase struct {
	Repo repository.ChatRepository
}

func NewMarkConversationReadUseCase(repo repository.ChatRepository) *MarkConversationReadUseCase {
	return &MarkConversationReadUseCase{Repo: repo}
}

func (uc *MarkConversationReadUseCase) Execute(ctx context.Context, in MarkConversationReadInput) error {
	if in.ChatID == "" || in.CallerID == "" {
		return fmt.Errorf("chatId and callerId are required")
	}

	conv, err := uc.Repo.GetConversationByChatID(ctx, in.ChatID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.HasParticipant(in.CallerID) {
		return chat.ErrNotParticipant
	}

	if err := uc.Repo.MarkConversationRead(ctx, in.ChatID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
