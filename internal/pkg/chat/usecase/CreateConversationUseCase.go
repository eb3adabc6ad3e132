package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	repository "github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/port"
)

// CreateConversationInput carries the two participants of a new thread.
// ChatID may be supplied by the caller (the order workflow reuses its own
// correlation id) or left empty to have one generated.
type CreateConversationInput struct {
	ChatID       string
	Participants [2]string
}

// CreateConversationUseCase opens a conversation between two users. This is
// the only creation path; it is invoked by the order-acceptance workflow,
// never directly by chat clients.
type CreateConversationUseCase struct {
	Repo repository.ChatRepository
}

func NewCreateConversationUseCase(repo repository.ChatRepository) *CreateConversationUseCase {
	return &CreateConversationUseCase{Repo: repo}
}

func (uc *CreateConversationUseCase) Execute(ctx context.Context, in CreateConversationInput) (*chat.Conversation, error) {
	chatID := in.ChatID
	if chatID == "" {
		chatID = uuid.NewString()
	}

	conv, err := chat.NewConversation(chatID, in.Participants[0], in.Participants[1], time.Now().UTC())
	if err != nil {
		return nil, err
	}

	id, err := uc.Repo.CreateConversation(ctx, *conv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	conv.ID = id
	return conv, nil
}
