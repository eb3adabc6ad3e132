package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/adapter"
	userrepo "github.com/sehabur/bookmate-backend/internal/pkg/user/repository/port"
)

type pushedEvent struct {
	UserID string
	Event  string
	Data   any
}

// fakeNotifier records live pushes and reports delivery only for users
// registered as online, mimicking the presence registry.
type fakeNotifier struct {
	online map[string]bool
	events []pushedEvent
}

func newFakeNotifier(online ...string) *fakeNotifier {
	n := &fakeNotifier{online: make(map[string]bool)}
	for _, u := range online {
		n.online[u] = true
	}
	return n
}

func (n *fakeNotifier) Notify(userID string, event string, data any) bool {
	if !n.online[userID] {
		return false
	}
	n.events = append(n.events, pushedEvent{UserID: userID, Event: event, Data: data})
	return true
}

func (n *fakeNotifier) eventsFor(userID string) []pushedEvent {
	var out []pushedEvent
	for _, e := range n.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

type fakeProfiles struct {
	profiles map[string]*userrepo.Profile
}

func (p *fakeProfiles) GetProfile(ctx context.Context, userID string) (*userrepo.Profile, error) {
	if prof, ok := p.profiles[userID]; ok {
		return prof, nil
	}
	return nil, userrepo.ErrNotFound
}

func newDeliverFixture(t *testing.T, online ...string) (*DeliverMessageUseCase, *adapter.MemChatRepository, *fakeNotifier) {
	t.Helper()
	repo := adapter.NewMemChatRepository()
	notifier := newFakeNotifier(online...)
	profiles := &fakeProfiles{profiles: map[string]*userrepo.Profile{
		"alice": {ID: "alice", FirstName: "Alice"},
		"bob":   {ID: "bob", FirstName: "Bob"},
	}}
	lister := NewGetConversationsUseCase(repo, profiles, zerolog.Nop())
	return NewDeliverMessageUseCase(repo, notifier, lister, zerolog.Nop()), repo, notifier
}

func seedConversation(t *testing.T, repo *adapter.MemChatRepository, chatID, a, b string) {
	t.Helper()
	conv, err := chat.NewConversation(chatID, a, b, time.Now().UTC())
	require.NoError(t, err)
	_, err = repo.CreateConversation(context.Background(), *conv)
	require.NoError(t, err)
}

func TestDeliverToPresentReceiver(t *testing.T) {
	req := require.New(t)
	uc, repo, notifier := newDeliverFixture(t, "alice", "bob")
	seedConversation(t, repo, "order-1", "alice", "bob")

	acks := 0
	msg, err := uc.Execute(context.Background(), DeliverMessageInput{
		ChatID:     "order-1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Text:       "is the book still available?",
		Ack:        func() { acks++ },
	})
	req.NoError(err)
	req.NotEmpty(msg.ID)
	req.Equal(1, acks)

	// Durable state: message stored, conversation preview refreshed and
	// flagged unread.
	msgs, err := repo.MessagesByChatID(context.Background(), "order-1", 0)
	req.NoError(err)
	req.Len(msgs, 1)
	req.Equal("is the book still available?", msgs[0].Text)

	conv, err := repo.GetConversationByChatID(context.Background(), "order-1")
	req.NoError(err)
	req.True(conv.Unread)
	req.Equal("is the book still available?", conv.LastText)
	req.Equal(msg.CreatedAt, conv.LastActivity)

	// Receiver gets the message push, then the refreshed list.
	bobEvents := notifier.eventsFor("bob")
	req.Len(bobEvents, 2)
	req.Equal(EventMessageReceived, bobEvents[0].Event)
	view, ok := bobEvents[0].Data.(MessageView)
	req.True(ok)
	req.Equal(msg.ID, view.ID)
	req.Equal("alice", view.Sender)
	req.Equal(EventConversationListUpdated, bobEvents[1].Event)

	// The sender only gets the list refresh, never an echo of the message.
	aliceEvents := notifier.eventsFor("alice")
	req.Len(aliceEvents, 1)
	req.Equal(EventConversationListUpdated, aliceEvents[0].Event)
}

func TestDeliverToOfflineReceiver(t *testing.T) {
	req := require.New(t)
	uc, repo, notifier := newDeliverFixture(t, "alice")
	seedConversation(t, repo, "order-1", "alice", "bob")

	acks := 0
	msg, err := uc.Execute(context.Background(), DeliverMessageInput{
		ChatID:     "order-1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Text:       "hello?",
		Ack:        func() { acks++ },
	})
	req.NoError(err)
	req.Equal(1, acks)

	// The receiver being offline changes nothing about durability.
	msgs, err := repo.MessagesByChatID(context.Background(), "order-1", 0)
	req.NoError(err)
	req.Len(msgs, 1)
	req.Equal(msg.ID, msgs[0].ID)

	req.Empty(notifier.eventsFor("bob"))

	// The message is waiting in history for bob's next fetch.
	conv, err := repo.GetConversationByChatID(context.Background(), "order-1")
	req.NoError(err)
	req.True(conv.Unread)
}

func TestDeliverAbortsOnWriteFailure(t *testing.T) {
	req := require.New(t)
	uc, repo, notifier := newDeliverFixture(t, "alice", "bob")
	seedConversation(t, repo, "order-1", "alice", "bob")
	repo.FailWrites = errors.New("disk on fire")

	acked := false
	_, err := uc.Execute(context.Background(), DeliverMessageInput{
		ChatID:     "order-1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Text:       "hi",
		Ack:        func() { acked = true },
	})
	req.ErrorIs(err, ErrPersistence)

	// Nothing observable happened: no ack, no pushes, no stored message,
	// no preview change.
	req.False(acked)
	req.Empty(notifier.events)

	msgs, err := repo.MessagesByChatID(context.Background(), "order-1", 0)
	req.NoError(err)
	req.Empty(msgs)

	conv, err := repo.GetConversationByChatID(context.Background(), "order-1")
	req.NoError(err)
	req.False(conv.Unread)
	req.Empty(conv.LastText)
}

func TestDeliverRejectsOutsiders(t *testing.T) {
	req := require.New(t)
	uc, repo, notifier := newDeliverFixture(t, "alice", "bob", "mallory")
	seedConversation(t, repo, "order-1", "alice", "bob")

	cases := []struct {
		name             string
		sender, receiver string
	}{
		{"sender outside", "mallory", "bob"},
		{"receiver outside", "alice", "mallory"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), DeliverMessageInput{
				ChatID:     "order-1",
				SenderID:   tc.sender,
				ReceiverID: tc.receiver,
				Text:       "let me in",
			})
			require.ErrorIs(t, err, chat.ErrNotParticipant)
		})
	}

	req.Empty(notifier.events)
	msgs, err := repo.MessagesByChatID(context.Background(), "order-1", 0)
	req.NoError(err)
	req.Empty(msgs)
}

func TestDeliverToUnknownChat(t *testing.T) {
	uc, _, _ := newDeliverFixture(t, "alice")

	_, err := uc.Execute(context.Background(), DeliverMessageInput{
		ChatID:     "nope",
		SenderID:   "alice",
		ReceiverID: "bob",
		Text:       "hi",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeliverValidatesInput(t *testing.T) {
	uc, repo, _ := newDeliverFixture(t)
	seedConversation(t, repo, "order-1", "alice", "bob")

	_, err := uc.Execute(context.Background(), DeliverMessageInput{
		ChatID:     "order-1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Text:       "   ",
	})
	require.ErrorIs(t, err, chat.ErrEmptyMessage)

	_, err = uc.Execute(context.Background(), DeliverMessageInput{
		ChatID:     "order-1",
		ReceiverID: "bob",
		Text:       "hi",
	})
	require.ErrorIs(t, err, chat.ErrMissingReference)
}

func TestDeliverUpdatesListOrdering(t *testing.T) {
	req := require.New(t)
	uc, repo, notifier := newDeliverFixture(t, "alice")
	seedConversation(t, repo, "order-1", "alice", "bob")
	seedConversation(t, repo, "order-2", "alice", "carol")

	// order-1 last moved well in the past; the fresh delivery to order-2
	// must sort ahead of it in the pushed list.
	stale := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req.NoError(repo.TouchConversation(context.Background(), "order-1", stale, "old message"))

	_, err := uc.Execute(context.Background(), DeliverMessageInput{
		ChatID:     "order-2",
		SenderID:   "alice",
		ReceiverID: "carol",
		Text:       "fresh message",
	})
	req.NoError(err)

	aliceEvents := notifier.eventsFor("alice")
	req.Len(aliceEvents, 1)
	views, ok := aliceEvents[0].Data.([]ConversationView)
	req.True(ok)
	req.Len(views, 2)
	// Newest activity first.
	req.Equal("order-2", views[0].ChatID)
	req.Equal("order-1", views[1].ChatID)
	req.Equal("fresh message", views[0].LastText)
}
