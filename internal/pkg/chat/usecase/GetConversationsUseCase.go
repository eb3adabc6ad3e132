package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	repository "github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/port"
	userrepo "github.com/sehabur/bookmate-backend/internal/pkg/user/repository/port"
)

// GetConversationsInput wraps the user whose conversation list is requested.
type GetConversationsInput struct {
	UserID string
}

// GetConversationsUseCase returns every conversation the user participates
// in, newest activity first, with the counterpart's profile resolved inline.
type GetConversationsUseCase struct {
	Repo     repository.ChatRepository
	Profiles userrepo.UserRepository
	Log      zerolog.Logger
}

func NewGetConversationsUseCase(repo repository.ChatRepository, profiles userrepo.UserRepository, log zerolog.Logger) *GetConversationsUseCase {
	return &GetConversationsUseCase{Repo: repo, Profiles: profiles, Log: log}
}

func (uc *GetConversationsUseCase) Execute(ctx context.Context, in GetConversationsInput) ([]ConversationView, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("userId is required")
	}

	convs, err := uc.Repo.ConversationsForUser(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	views := make([]ConversationView, 0, len(convs))
	for _, c := range convs {
		view := ConversationView{
			ChatID:       c.ChatID,
			Participants: c.Participants,
			LastActivity: c.LastActivity,
			LastText:     c.LastText,
			Unread:       c.Unread,
		}
		if other, ok := c.Counterpart(in.UserID); ok {
			profile, err := uc.Profiles.GetProfile(ctx, other)
			if err != nil {
				// The list is still useful without the profile.
				uc.Log.Warn().Err(err).Str("user", other).Msg("profile resolution failed")
			} else {
				view.Counterpart = profile
			}
		}
		views = append(views, view)
	}
	return views, nil
}
