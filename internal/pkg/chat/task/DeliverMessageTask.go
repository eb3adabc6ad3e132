package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	qport "github.com/sehabur/bookmate-backend/internal/infrastructure/queue/port"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/usecase"
)

// DeliverMessageTaskType is the queue task name for the REST send path.
const DeliverMessageTaskType = "chat:deliver_message"

// DeliverMessageTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type DeliverMessageTaskPayload struct {
	ChatID   string `json:"chatId"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Text     string `json:"text"`
}

// RegisterDeliverMessageTask binds the task handler to the provided server.
// The worker runs in-process with the API, so the delivery engine it invokes
// shares the live presence registry and pushes still reach connected clients.
func RegisterDeliverMessageTask(srv qport.Server, deliver *usecase.DeliverMessageUseCase) {
	srv.Register(DeliverMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p DeliverMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		_, err := deliver.Execute(ctx, usecase.DeliverMessageInput{
			ChatID:     p.ChatID,
			SenderID:   p.Sender,
			ReceiverID: p.Receiver,
			Text:       p.Text,
		})
		if err != nil {
			// Only persistence failures can succeed on retry; domain
			// rejections are dropped.
			if errors.Is(err, usecase.ErrPersistence) {
				return err
			}
			return nil
		}
		return nil
	})
}
