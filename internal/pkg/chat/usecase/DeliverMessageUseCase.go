package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sehabur/bookmate-backend/internal/infrastructure/metrics"
	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	repository "github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/port"
)

// Events pushed over the realtime channel.
const (
	EventMessageReceived         = "messageReceived"
	EventConversationListUpdated = "conversationListUpdated"
)

// Notifier is the live-push side of the presence registry. Delivery over it
// is best-effort: false means the user was absent or the push failed, and
// neither is an error for the delivery as a whole.
type Notifier interface {
	Notify(userID string, event string, data any) bool
}

// DeliverMessageInput carries one outgoing message. Ack, when non-nil, is
// invoked exactly once after the message is durable and the receiver push has
// been attempted; it is never invoked on failure.
type DeliverMessageInput struct {
	ChatID     string
	SenderID   string
	ReceiverID string
	Text       string
	Ack        func()
}

// DeliverMessageUseCase is the single authoritative path for turning an
// outgoing message into durable state plus live notifications.
//
// Ordering: the message is persisted before any live event is emitted, so a
// client that polls history right after the ack always sees the message. The
// conversation preview update and the message insert are separate
// single-statement writes; no transaction spans them.
type DeliverMessageUseCase struct {
	Repo     repository.ChatRepository
	Notifier Notifier
	Lister   *GetConversationsUseCase
	Log      zerolog.Logger
}

func NewDeliverMessageUseCase(repo repository.ChatRepository, notifier Notifier, lister *GetConversationsUseCase, log zerolog.Logger) *DeliverMessageUseCase {
	return &DeliverMessageUseCase{Repo: repo, Notifier: notifier, Lister: lister, Log: log}
}

func (uc *DeliverMessageUseCase) Execute(ctx context.Context, in DeliverMessageInput) (*chat.Message, error) {
	msg, err := chat.NewMessage(chat.Message{
		ChatID:     in.ChatID,
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Text:       in.Text,
	})
	if err != nil {
		return nil, err
	}

	// Capability check: both parties must belong to the conversation.
	conv, err := uc.Repo.GetConversationByChatID(ctx, in.ChatID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.HasParticipant(msg.SenderID) || !conv.HasParticipant(msg.ReceiverID) {
		return nil, chat.ErrNotParticipant
	}

	// Durable first. A failure here aborts the whole delivery: no ack, no
	// pushes, error surfaced to the sender only.
	id, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		metrics.DeliveryFailures.Inc()
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id
	metrics.MessagesPersisted.Inc()

	if err := uc.Repo.TouchConversation(ctx, msg.ChatID, msg.CreatedAt, msg.Text); err != nil {
		metrics.DeliveryFailures.Inc()
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Live push to the receiver, if present. Absence is the normal offline
	// case; the receiver finds the message on their next history poll.
	uc.Notifier.Notify(msg.ReceiverID, EventMessageReceived, ToMessageView(*msg))

	if in.Ack != nil {
		in.Ack()
	}

	uc.pushConversationList(ctx, msg.SenderID)
	uc.pushConversationList(ctx, msg.ReceiverID)

	return msg, nil
}

// pushConversationList recomputes the user's full conversation list and
// pushes it as an eager read-model refresh. Failures degrade to the client
// refreshing on its own; they never fail the delivery.
func (uc *DeliverMessageUseCase) pushConversationList(ctx context.Context, userID string) {
	views, err := uc.Lister.Execute(ctx, GetConversationsInput{UserID: userID})
	if err != nil {
		uc.Log.Warn().Err(err).Str("user", userID).Msg("conversation list refresh failed")
		return
	}
	uc.Notifier.Notify(userID, EventConversationListUpdated, views)
}
