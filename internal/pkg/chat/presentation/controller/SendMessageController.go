package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	queueport "github.com/sehabur/bookmate-backend/internal/infrastructure/queue/port"
	"github.com/sehabur/bookmate-backend/internal/pkg/auth"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/task"
)

// SendMessageController handles the REST send-message endpoint (one
// controller per endpoint). The message is enqueued and delivered by the
// in-process worker, which runs the same delivery engine as the realtime
// channel.
type SendMessageController struct {
	Q queueport.Client
}

func NewSendMessageController(client queueport.Client) *SendMessageController {
	return &SendMessageController{Q: client}
}

type sendMessageRequest struct {
	Receiver string `json:"receiver" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

// Handle returns a gin handler that enqueues a background delivery task.
func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		payload := task.DeliverMessageTaskPayload{
			ChatID:   chatID,
			Sender:   auth.CurrentUserID(c),
			Receiver: req.Receiver,
			Text:     req.Text,
		}
		b, err := json.Marshal(payload)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode task payload"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		opts := queueport.EnqueueOption{Queue: "chat", MaxRetry: 20}
		id, err := h.Q.Enqueue(ctx, queueport.Task{Type: task.DeliverMessageTaskType, Payload: b}, opts)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue message"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":  "queued",
			"task_id": id,
			"chat_id": chatID,
		})
	}
}
