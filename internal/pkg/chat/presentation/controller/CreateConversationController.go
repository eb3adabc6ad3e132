package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/usecase"
)

// CreateConversationController opens a conversation between two users (one
// controller per endpoint). It exists for the order-acceptance workflow; chat
// clients never call it directly.
type CreateConversationController struct {
	UC *usecase.CreateConversationUseCase
}

func NewCreateConversationController(uc *usecase.CreateConversationUseCase) *CreateConversationController {
	return &CreateConversationController{UC: uc}
}

type createConversationRequest struct {
	ChatID       string   `json:"chatId"`
	Participants []string `json:"participants" binding:"required"`
}

func (h *CreateConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(req.Participants) != 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "participants must contain exactly two user ids"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		conv, err := h.UC.Execute(ctx, usecase.CreateConversationInput{
			ChatID:       req.ChatID,
			Participants: [2]string{req.Participants[0], req.Participants[1]},
		})
		if err != nil {
			status := http.StatusBadRequest
			switch {
			case errors.Is(err, chat.ErrBadParticipants):
				status = http.StatusBadRequest
			case errors.Is(err, usecase.ErrPersistence):
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"chatId":       conv.ChatID,
			"participants": conv.Participants,
			"createdAt":    conv.CreatedAt,
		})
	}
}
