package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/adapter"
	userrepo "github.com/sehabur/bookmate-backend/internal/pkg/user/repository/port"
)

func TestMarkReadClearsUnreadUntilNextMessage(t *testing.T) {
	req := require.New(t)
	deliver, repo, _ := newDeliverFixture(t)
	seedConversation(t, repo, "order-1", "alice", "bob")

	markRead := NewMarkConversationReadUseCase(repo)
	unread := NewUnreadCountUseCase(repo)

	_, err := deliver.Execute(context.Background(), DeliverMessageInput{
		ChatID: "order-1", SenderID: "alice", ReceiverID: "bob", Text: "hello",
	})
	req.NoError(err)

	n, err := unread.Execute(context.Background(), UnreadCountInput{UserID: "bob"})
	req.NoError(err)
	req.Equal(1, n)

	req.NoError(markRead.Execute(context.Background(), MarkConversationReadInput{ChatID: "order-1", CallerID: "bob"}))
	n, err = unread.Execute(context.Background(), UnreadCountInput{UserID: "bob"})
	req.NoError(err)
	req.Equal(0, n)

	// Repeating the clear is a no-op.
	req.NoError(markRead.Execute(context.Background(), MarkConversationReadInput{ChatID: "order-1", CallerID: "bob"}))
	n, err = unread.Execute(context.Background(), UnreadCountInput{UserID: "bob"})
	req.NoError(err)
	req.Equal(0, n)

	// The next message raises the flag again.
	_, err = deliver.Execute(context.Background(), DeliverMessageInput{
		ChatID: "order-1", SenderID: "alice", ReceiverID: "bob", Text: "still there?",
	})
	req.NoError(err)
	n, err = unread.Execute(context.Background(), UnreadCountInput{UserID: "bob"})
	req.NoError(err)
	req.Equal(1, n)
}

func TestMarkReadGuards(t *testing.T) {
	req := require.New(t)
	repo := adapter.NewMemChatRepository()
	seedConversation(t, repo, "order-1", "alice", "bob")
	markRead := NewMarkConversationReadUseCase(repo)

	err := markRead.Execute(context.Background(), MarkConversationReadInput{ChatID: "order-1", CallerID: "mallory"})
	req.ErrorIs(err, chat.ErrNotParticipant)

	err = markRead.Execute(context.Background(), MarkConversationReadInput{ChatID: "nope", CallerID: "alice"})
	req.ErrorIs(err, ErrNotFound)

	err = markRead.Execute(context.Background(), MarkConversationReadInput{ChatID: "order-1"})
	req.Error(err)
}

func TestGetMessagesReturnsNewestFiftyByDefault(t *testing.T) {
	req := require.New(t)
	repo := adapter.NewMemChatRepository()
	seedConversation(t, repo, "order-1", "alice", "bob")

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 51; i++ {
		_, err := repo.SaveMessage(context.Background(), chat.Message{
			ChatID:     "order-1",
			SenderID:   "alice",
			ReceiverID: "bob",
			Text:       fmt.Sprintf("msg-%d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		req.NoError(err)
	}

	uc := NewGetMessagesUseCase(repo)
	msgs, err := uc.Execute(context.Background(), GetMessagesInput{ChatID: "order-1", CallerID: "alice"})
	req.NoError(err)
	req.Len(msgs, 50)
	// Newest first; the oldest message falls off the page.
	req.Equal("msg-50", msgs[0].Text)
	req.Equal("msg-1", msgs[49].Text)

	msgs, err = uc.Execute(context.Background(), GetMessagesInput{ChatID: "order-1", CallerID: "bob", Limit: 5})
	req.NoError(err)
	req.Len(msgs, 5)
	req.Equal("msg-50", msgs[0].Text)
}

func TestGetMessagesRejectsOutsiders(t *testing.T) {
	req := require.New(t)
	repo := adapter.NewMemChatRepository()
	seedConversation(t, repo, "order-1", "alice", "bob")
	uc := NewGetMessagesUseCase(repo)

	_, err := uc.Execute(context.Background(), GetMessagesInput{ChatID: "order-1", CallerID: "mallory"})
	req.ErrorIs(err, chat.ErrNotParticipant)

	_, err = uc.Execute(context.Background(), GetMessagesInput{ChatID: "order-1"})
	req.ErrorIs(err, chat.ErrNotParticipant)
}

func TestGetMessagesDistinguishesEmptyFromUnknown(t *testing.T) {
	req := require.New(t)
	repo := adapter.NewMemChatRepository()
	seedConversation(t, repo, "order-1", "alice", "bob")
	uc := NewGetMessagesUseCase(repo)

	msgs, err := uc.Execute(context.Background(), GetMessagesInput{ChatID: "order-1", CallerID: "alice"})
	req.NoError(err)
	req.Empty(msgs)

	_, err = uc.Execute(context.Background(), GetMessagesInput{ChatID: "nope", CallerID: "alice"})
	req.ErrorIs(err, ErrNotFound)
}

func TestCreateConversation(t *testing.T) {
	req := require.New(t)
	repo := adapter.NewMemChatRepository()
	uc := NewCreateConversationUseCase(repo)

	conv, err := uc.Execute(context.Background(), CreateConversationInput{
		ChatID:       "order-42",
		Participants: [2]string{"alice", "bob"},
	})
	req.NoError(err)
	req.Equal("order-42", conv.ChatID)
	req.NotEmpty(conv.ID)

	stored, err := repo.GetConversationByChatID(context.Background(), "order-42")
	req.NoError(err)
	req.Equal([2]string{"alice", "bob"}, stored.Participants)

	// Without a caller-supplied id one is generated.
	conv, err = uc.Execute(context.Background(), CreateConversationInput{Participants: [2]string{"alice", "carol"}})
	req.NoError(err)
	req.NotEmpty(conv.ChatID)

	_, err = uc.Execute(context.Background(), CreateConversationInput{
		ChatID:       "order-43",
		Participants: [2]string{"alice", "alice"},
	})
	req.ErrorIs(err, chat.ErrBadParticipants)
}

func TestGetConversationsResolvesCounterpart(t *testing.T) {
	req := require.New(t)
	repo := adapter.NewMemChatRepository()
	seedConversation(t, repo, "order-1", "alice", "bob")
	seedConversation(t, repo, "order-2", "alice", "ghost")

	profiles := &fakeProfiles{profiles: map[string]*userrepo.Profile{
		"bob": {ID: "bob", FirstName: "Bob", District: "Dhaka"},
	}}
	uc := NewGetConversationsUseCase(repo, profiles, zerolog.Nop())

	views, err := uc.Execute(context.Background(), GetConversationsInput{UserID: "alice"})
	req.NoError(err)
	req.Len(views, 2)

	byChat := make(map[string]ConversationView, len(views))
	for _, v := range views {
		byChat[v.ChatID] = v
	}

	req.NotNil(byChat["order-1"].Counterpart)
	req.Equal("Bob", byChat["order-1"].Counterpart.FirstName)
	// A missing profile degrades to a view without one, not an error.
	req.Nil(byChat["order-2"].Counterpart)

	_, err = uc.Execute(context.Background(), GetConversationsInput{})
	req.Error(err)
}
