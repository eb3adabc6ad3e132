package usecase

import (
	"context"
	"fmt"

	repository "github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/port"
)

// UnreadCountInput wraps the user whose unread conversations are counted.
type UnreadCountInput struct {
	UserID string
}

// UnreadCountUseCase counts the user's conversations flagged unread.
type UnreadCountUseCase struct {
	Repo repository.ChatRepository
}

func NewUnreadCountUseCase(repo repository.ChatRepository) *UnreadCountUseCase {
	return &UnreadCountUseCase{Repo: repo}
}

func (uc *UnreadCountUseCase) Execute(ctx context.Context, in UnreadCountInput) (int, error) {
	if in.UserID == "" {
		return 0, fmt.Errorf("userId is required")
	}
	n, err := uc.Repo.UnreadConversationCount(ctx, in.UserID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n, nil
}
