package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sehabur/bookmate-backend/internal/infrastructure/metrics"
	"github.com/sehabur/bookmate-backend/internal/infrastructure/realtime"
	"github.com/sehabur/bookmate-backend/internal/pkg/auth"
	chat "github.com/sehabur/bookmate-backend/internal/pkg/chat/domain"
	"github.com/sehabur/bookmate-backend/internal/pkg/chat/usecase"
)

// ChatSocketController handles the websocket endpoint for realtime chat.
//
// Each connection walks a small state machine: it starts anonymous, becomes
// identified after a verified "identify" frame registers it in the presence
// registry, and is closed on disconnect, which removes it again. Send and
// mark-read frames from an anonymous connection are rejected.
type ChatSocketController struct {
	registry        *realtime.Registry
	tokens          *auth.TokenManager
	deliverUC       *usecase.DeliverMessageUseCase
	markReadUC      *usecase.MarkConversationReadUseCase
	log             zerolog.Logger
	inflightTimeout time.Duration
}

func NewChatSocketController(registry *realtime.Registry, tokens *auth.TokenManager, deliver *usecase.DeliverMessageUseCase, markRead *usecase.MarkConversationReadUseCase, log zerolog.Logger) *ChatSocketController {
	return &ChatSocketController{
		registry:        registry,
		tokens:          tokens,
		deliverUC:       deliver,
		markReadUC:      markRead,
		log:             log,
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from the marketplace frontend origin;
		// tokens, not origins, gate access here.
		return true
	},
}

type inboundFrame struct {
	Type     string `json:"type"`
	Token    string `json:"token,omitempty"`
	ChatID   string `json:"chatId,omitempty"`
	Receiver string `json:"receiver,omitempty"`
	Text     string `json:"text,omitempty"`
}

type errorPayload struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ackPayload struct {
	Status string `json:"status"`
	ChatID string `json:"chatId,omitempty"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades HTTP connections to websocket and processes frames until
// the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		conn := realtime.NewConnection(ws)
		conn.Start()
		metrics.SocketsOpen.Inc()

		userID := "" // anonymous until a verified identify frame arrives

		defer func() {
			ctl.registry.Leave(conn.ID)
			conn.Close(websocket.CloseNormalClosure, "session closed")
			metrics.SocketsOpen.Dec()
			if userID != "" {
				ctl.log.Info().Str("user", userID).Msg("user disconnected")
			}
		}()

		ws.SetReadLimit(1 << 20)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		_ = conn.SendEvent("connected", nil)

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.replyError(conn, "read_error", err.Error())
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "identify":
				userID = ctl.handleIdentify(conn, frame, userID)
			case "sendMessage":
				ctl.handleSendMessage(c, conn, userID, frame)
			case "markRead":
				ctl.handleMarkRead(c, conn, userID, frame)
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

// handleIdentify verifies the bearer token carried in the frame and registers
// the connection under the verified user id. The id is always taken from the
// token claims, never from a client-asserted field.
func (ctl *ChatSocketController) handleIdentify(conn *realtime.Connection, frame inboundFrame, current string) string {
	if frame.Token == "" {
		ctl.replyError(conn, "unauthorized", "token is required")
		return current
	}
	claims, err := ctl.tokens.Validate(frame.Token)
	if err != nil {
		ctl.replyError(conn, "unauthorized", "invalid token")
		return current
	}

	// Re-identifying as a different user releases the previous binding so the
	// old user does not keep showing as present on this socket.
	if current != "" && current != claims.UserID {
		ctl.registry.Leave(conn.ID)
	}
	ctl.registry.Join(claims.UserID, conn)
	ctl.log.Info().Str("user", claims.UserID).Msg("user identified")

	_ = conn.SendEvent("identified", ackPayload{Status: "ok"})
	return claims.UserID
}

func (ctl *ChatSocketController) handleSendMessage(c *gin.Context, conn *realtime.Connection, userID string, frame inboundFrame) {
	if userID == "" {
		ctl.replyError(conn, "unauthorized", "identify before sending messages")
		return
	}
	if frame.ChatID == "" || frame.Receiver == "" {
		ctl.replyError(conn, "bad_request", "chatId and receiver are required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	_, err := ctl.deliverUC.Execute(ctx, usecase.DeliverMessageInput{
		ChatID:     frame.ChatID,
		SenderID:   userID,
		ReceiverID: frame.Receiver,
		Text:       frame.Text,
		Ack: func() {
			_ = conn.SendEvent("ack", ackPayload{Status: "ok", ChatID: frame.ChatID})
		},
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
	}
}

func (ctl *ChatSocketController) handleMarkRead(c *gin.Context, conn *realtime.Connection, userID string, frame inboundFrame) {
	if userID == "" {
		ctl.replyError(conn, "unauthorized", "identify before marking conversations read")
		return
	}
	if frame.ChatID == "" {
		ctl.replyError(conn, "bad_request", "chatId is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	err := ctl.markReadUC.Execute(ctx, usecase.MarkConversationReadInput{
		ChatID:   frame.ChatID,
		CallerID: userID,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}
	_ = conn.SendEvent("ack", ackPayload{Status: "ok", ChatID: frame.ChatID})
}

func (ctl *ChatSocketController) handleUseCaseError(conn *realtime.Connection, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		ctl.replyError(conn, "not_found", "conversation not found")
	case errors.Is(err, chat.ErrNotParticipant):
		ctl.replyError(conn, "forbidden", "user is not a participant in this conversation")
	case errors.Is(err, usecase.ErrPersistence):
		ctl.replyError(conn, "internal_error", "unexpected persistence error")
	default:
		ctl.replyError(conn, "bad_request", err.Error())
	}
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, code string, message string) {
	_ = conn.SendEvent("error", errorPayload{Code: code, Error: message})
}
