package v1

import (
	"github.com/gin-gonic/gin"

	chathttp "github.com/sehabur/bookmate-backend/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, h *chathttp.Handlers) {
	v1 := r.Group("/api/v1")
	h.Register(v1)
}
