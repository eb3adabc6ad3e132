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

// GetConversationsController handles the conversation-list endpoint (one
// controller per endpoint).
type GetConversationsController struct {
	UC *usecase.GetConversationsUseCase
}

func NewGetConversationsController(uc *usecase.GetConversationsUseCase) *GetConversationsController {
	return &GetConversationsController{UC: uc}
}

func (h *GetConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}
		if userID != auth.CurrentUserID(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized to get these conversations"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		views, err := h.UC.Execute(ctx, usecase.GetConversationsInput{UserID: userID})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"conversations": views, "count": len(views)})
	}
}
