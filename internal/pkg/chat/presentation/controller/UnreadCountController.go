package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sehabur/bookmate-backend/internal/pkg/auth"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/usecase"
)

// UnreadCountController handles the unread-conversation-count endpoint (one
// controller per endpoint).
type UnreadCountController struct {
	UC *usecase.UnreadCountUseCase
}

func NewUnreadCountController(uc *usecase.UnreadCountUseCase) *UnreadCountController {
	return &UnreadCountController{UC: uc}
}

func (h *UnreadCountController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}
		if userID != auth.CurrentUserID(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized to get this count"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		n, err := h.UC.Execute(ctx, usecase.UnreadCountInput{UserID: userID})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"count": n})
	}
}
