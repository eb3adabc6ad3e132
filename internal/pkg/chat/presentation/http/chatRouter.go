package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	cacheport "github.com/sehabur/bookmate-backend/internal/infrastructure/cache/port"
	qport "github.com/sehabur/bookmate-backend/internal/infrastructure/queue/port"
	"github.com/sehabur/bookmate-backend/internal/infrastructure/realtime"
	"github.com/sehabur/bookmate-backend/internal/pkg/auth"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/presentation/controller"
	repoAdapter "github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/adapter"
	repository "github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/port"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/usecase"
	userAdapter "github.com/sehabur/bookmate-backend/internal/pkg/user/repository/adapter"
	userrepo "github.com/sehabur/bookmate-backend/internal/pkg/user/repository/port"
)

// Deps carries everything the chat surface needs wired in.
type Deps struct {
	Pool       *pgxpool.Pool
	Queue      qport.Client
	Registry   *realtime.Registry
	Cache      cacheport.Cache // optional; profile reads go straight to the pool when nil
	Tokens     *auth.TokenManager
	Log        zerolog.Logger
	ProfileTTL time.Duration
}

// Handlers holds the constructed use cases; the worker tasks reuse Deliver
// and Create so the queue path and the socket path share one delivery engine.
type Handlers struct {
	Deliver  *usecase.DeliverMessageUseCase
	Create   *usecase.CreateConversationUseCase
	MarkRead *usecase.MarkConversationReadUseCase

	repo repository.ChatRepository
	deps Deps
}

// Wire constructs the repositories and use cases for the chat domain.
func Wire(d Deps) *Handlers {
	repo := repoAdapter.NewPgChatRepository(d.Pool)

	var profiles userrepo.UserRepository = userAdapter.NewPgUserRepository(d.Pool)
	if d.Cache != nil {
		profiles = userAdapter.NewCachedUserRepository(profiles, d.Cache, d.ProfileTTL)
	}

	lister := usecase.NewGetConversationsUseCase(repo, profiles, d.Log)
	deliver := usecase.NewDeliverMessageUseCase(repo, d.Registry, lister, d.Log)

	return &Handlers{
		Deliver:  deliver,
		Create:   usecase.NewCreateConversationUseCase(repo),
		MarkRead: usecase.NewMarkConversationReadUseCase(repo),
		repo:     repo,
		deps:     d,
	}
}

// Register mounts the chat endpoints under the given router group.
func (h *Handlers) Register(g *gin.RouterGroup) {
	d := h.deps
	repo := h.repo

	conversationsCtl := controller.NewGetConversationsController(h.Deliver.Lister)
	messagesCtl := controller.NewGetMessagesController(usecase.NewGetMessagesUseCase(repo))
	unreadCtl := controller.NewUnreadCountController(usecase.NewUnreadCountUseCase(repo))
	markReadCtl := controller.NewMarkReadController(h.MarkRead)
	sendCtl := controller.NewSendMessageController(d.Queue)
	createCtl := controller.NewCreateConversationController(h.Create)
	socketCtl := controller.NewChatSocketController(d.Registry, d.Tokens, h.Deliver, h.MarkRead, d.Log)

	// GET /api/v1/chat/ws -> websocket endpoint; identity is established by
	// the identify frame, not by middleware.
	g.GET("/chat/ws", socketCtl.Handle())

	authed := g.Group("", auth.RequireAuth(d.Tokens))
	authed.POST("/chat", createCtl.Handle())
	authed.GET("/chat/conversations/:userId", conversationsCtl.Handle())
	authed.GET("/chat/unreadCount/:userId", unreadCtl.Handle())
	authed.GET("/chat/:chatId/messages", messagesCtl.Handle())
	authed.POST("/chat/:chatId/messages", sendCtl.Handle())
	authed.POST("/chat/:chatId/read", markReadCtl.Handle())
}
