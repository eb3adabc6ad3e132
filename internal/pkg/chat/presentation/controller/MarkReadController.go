package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sehabur/bookmate-backend/internal/pkg/auth"
	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/usecase"
)

// MarkReadController clears a conversation's unread flag (one controller per
// endpoint).
type MarkReadController struct {
	UC *usecase.MarkConversationReadUseCase
}

func NewMarkReadController(uc *usecase.MarkConversationReadUseCase) *MarkReadController {
	return &MarkReadController{UC: uc}
}

func (h *MarkReadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		err := h.UC.Execute(ctx, usecase.MarkConversationReadInput{
			ChatID:   chatID,
			CallerID: auth.CurrentUserID(c),
		})
		if err != nil {
			status := http.StatusBadRequest
			switch {
			case errors.Is(err, usecase.ErrNotFound):
				status = http.StatusNotFound
			case errors.Is(err, chat.ErrNotParticipant):
				status = http.StatusForbidden
			case errors.Is(err, usecase.ErrPersistence):
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
