package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	qport "github.com/sehabur/bookmate-backend/internal/infrastructure/queue/port"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/usecase"
)

// OrderAcceptedTaskType is emitted by the order workflow when an exchange
// request transitions to accepted. It is the only event that opens a
// conversation.
const OrderAcceptedTaskType = "order:accepted"

// OrderAcceptedTaskPayload identifies the accepted order and its two parties.
type OrderAcceptedTaskPayload struct {
	OrderID     string `json:"orderId"`
	Requestor   string `json:"requestor"`
	RequestedTo string `json:"requestedTo"`
}

// RegisterOrderAcceptedTask opens a conversation between the two parties of
// the accepted order, keyed by the order id so redelivery of the same event
// is detectable downstream.
func RegisterOrderAcceptedTask(srv qport.Server, create *usecase.CreateConversationUseCase) {
	srv.Register(OrderAcceptedTaskType, func(ctx context.Context, t qport.Task) error {
		var p OrderAcceptedTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		_, err := create.Execute(ctx, usecase.CreateConversationInput{
			ChatID:       p.OrderID,
			Participants: [2]string{p.Requestor, p.RequestedTo},
		})
		if err != nil && errors.Is(err, usecase.ErrPersistence) {
			return err
		}
		// Malformed events cannot succeed on retry.
		return nil
	})
}
