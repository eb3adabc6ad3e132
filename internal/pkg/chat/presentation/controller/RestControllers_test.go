package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	queueport "github.com/sehabur/bookmate-backend/internal/infrastructure/queue/port"
	"github.com/sehabur/bookmate-backend/internal/pkg/auth"
	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/repository/adapter"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/task"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/usecase"
)

// fakeQueue records enqueued tasks instead of talking to redis.
type fakeQueue struct {
	tasks []queueport.Task
	opts  []queueport.EnqueueOption
}

func (q *fakeQueue) Enqueue(ctx context.Context, t queueport.Task, opts ...queueport.EnqueueOption) (string, error) {
	q.tasks = append(q.tasks, t)
	q.opts = append(q.opts, opts...)
	return fmt.Sprintf("task-%d", len(q.tasks)), nil
}

func (q *fakeQueue) Close() error { return nil }

type restFixture struct {
	router *gin.Engine
	repo   *adapter.MemChatRepository
	tokens *auth.TokenManager
	queue  *fakeQueue
}

func newRestFixture(t *testing.T) *restFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := adapter.NewMemChatRepository()
	tokens := auth.NewTokenManager("test-secret", "bookmate", time.Hour)
	queue := &fakeQueue{}

	lister := usecase.NewGetConversationsUseCase(repo, stubProfiles{}, zerolog.Nop())

	router := gin.New()
	authed := router.Group("", auth.RequireAuth(tokens))
	authed.POST("/chat", NewCreateConversationController(usecase.NewCreateConversationUseCase(repo)).Handle())
	authed.GET("/chat/conversations/:userId", NewGetConversationsController(lister).Handle())
	authed.GET("/chat/unreadCount/:userId", NewUnreadCountController(usecase.NewUnreadCountUseCase(repo)).Handle())
	authed.GET("/chat/:chatId/messages", NewGetMessagesController(usecase.NewGetMessagesUseCase(repo)).Handle())
	authed.POST("/chat/:chatId/messages", NewSendMessageController(queue).Handle())
	authed.POST("/chat/:chatId/read", NewMarkReadController(usecase.NewMarkConversationReadUseCase(repo)).Handle())

	return &restFixture{router: router, repo: repo, tokens: tokens, queue: queue}
}

func (f *restFixture) do(t *testing.T, userID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		token, err := f.tokens.Generate(userID)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func seedRestConversation(t *testing.T, f *restFixture, chatID, a, b string) {
	t.Helper()
	conv, err := chat.NewConversation(chatID, a, b, time.Now().UTC())
	require.NoError(t, err)
	_, err = f.repo.CreateConversation(context.Background(), *conv)
	require.NoError(t, err)
}

func TestConversationListEndpoint(t *testing.T) {
	req := require.New(t)
	f := newRestFixture(t)
	seedRestConversation(t, f, "order-1", "alice", "bob")

	w := f.do(t, "alice", http.MethodGet, "/chat/conversations/alice", "")
	req.Equal(http.StatusOK, w.Code)

	var resp struct {
		Conversations []usecase.ConversationView `json:"conversations"`
		Count         int                        `json:"count"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Equal(1, resp.Count)
	req.Equal("order-1", resp.Conversations[0].ChatID)
	req.NotNil(resp.Conversations[0].Counterpart)

	// You can only read your own list.
	w = f.do(t, "mallory", http.MethodGet, "/chat/conversations/alice", "")
	req.Equal(http.StatusUnauthorized, w.Code)

	// No token at all.
	w = f.do(t, "", http.MethodGet, "/chat/conversations/alice", "")
	req.Equal(http.StatusUnauthorized, w.Code)
}

func TestMessageHistoryEndpoint(t *testing.T) {
	req := require.New(t)
	f := newRestFixture(t)
	seedRestConversation(t, f, "order-1", "alice", "bob")

	for i := 0; i < 3; i++ {
		_, err := f.repo.SaveMessage(context.Background(), chat.Message{
			ChatID: "order-1", SenderID: "alice", ReceiverID: "bob",
			Text: fmt.Sprintf("msg-%d", i), CreatedAt: time.Now().UTC(),
		})
		req.NoError(err)
	}

	w := f.do(t, "alice", http.MethodGet, "/chat/order-1/messages?limit=2", "")
	req.Equal(http.StatusOK, w.Code)

	var resp struct {
		Messages []usecase.MessageView `json:"messages"`
		Count    int                   `json:"count"`
		Limit    int                   `json:"limit"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Equal(2, resp.Count)
	req.Equal(2, resp.Limit)
	req.Equal("msg-2", resp.Messages[0].Text)

	w = f.do(t, "alice", http.MethodGet, "/chat/nope/messages", "")
	req.Equal(http.StatusNotFound, w.Code)

	// History is participant-only.
	w = f.do(t, "mallory", http.MethodGet, "/chat/order-1/messages", "")
	req.Equal(http.StatusForbidden, w.Code)
}

func TestSendMessageEndpointEnqueues(t *testing.T) {
	req := require.New(t)
	f := newRestFixture(t)

	w := f.do(t, "alice", http.MethodPost, "/chat/order-1/messages", `{"receiver":"bob","text":"hi there"}`)
	req.Equal(http.StatusAccepted, w.Code)
	req.Contains(w.Body.String(), "queued")

	req.Len(f.queue.tasks, 1)
	req.Equal(task.DeliverMessageTaskType, f.queue.tasks[0].Type)

	var payload task.DeliverMessageTaskPayload
	req.NoError(json.Unmarshal(f.queue.tasks[0].Payload, &payload))
	req.Equal("order-1", payload.ChatID)
	// Sender comes from the verified token, not the request body.
	req.Equal("alice", payload.Sender)
	req.Equal("bob", payload.Receiver)
	req.Equal("hi there", payload.Text)

	req.Len(f.queue.opts, 1)
	req.Equal("chat", f.queue.opts[0].Queue)

	w = f.do(t, "alice", http.MethodPost, "/chat/order-1/messages", `{"receiver":"bob"}`)
	req.Equal(http.StatusBadRequest, w.Code)
	req.Len(f.queue.tasks, 1)
}

func TestMarkReadAndUnreadCountEndpoints(t *testing.T) {
	req := require.New(t)
	f := newRestFixture(t)
	seedRestConversation(t, f, "order-1", "alice", "bob")
	req.NoError(f.repo.TouchConversation(context.Background(), "order-1", time.Now().UTC(), "hello"))

	w := f.do(t, "bob", http.MethodGet, "/chat/unreadCount/bob", "")
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), `"count":1`)

	// An outsider cannot clear the flag.
	w = f.do(t, "mallory", http.MethodPost, "/chat/order-1/read", "")
	req.Equal(http.StatusForbidden, w.Code)

	w = f.do(t, "bob", http.MethodPost, "/chat/order-1/read", "")
	req.Equal(http.StatusOK, w.Code)

	w = f.do(t, "bob", http.MethodGet, "/chat/unreadCount/bob", "")
	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), `"count":0`)

	w = f.do(t, "bob", http.MethodPost, "/chat/nope/read", "")
	req.Equal(http.StatusNotFound, w.Code)
}

func TestCreateConversationEndpoint(t *testing.T) {
	req := require.New(t)
	f := newRestFixture(t)

	w := f.do(t, "svc-orders", http.MethodPost, "/chat", `{"chatId":"order-9","participants":["alice","bob"]}`)
	req.Equal(http.StatusCreated, w.Code)
	req.Contains(w.Body.String(), "order-9")

	conv, err := f.repo.GetConversationByChatID(context.Background(), "order-9")
	req.NoError(err)
	req.Equal([2]string{"alice", "bob"}, conv.Participants)

	w = f.do(t, "svc-orders", http.MethodPost, "/chat", `{"participants":["alice"]}`)
	req.Equal(http.StatusBadRequest, w.Code)

	w = f.do(t, "svc-orders", http.MethodPost, "/chat", `{"participants":["alice","alice"]}`)
	req.Equal(http.StatusBadRequest, w.Code)
}
