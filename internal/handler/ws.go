package handler

import (
	"context"
	"errors"
	"net/http"

	"privacy-chat/internal/hub"
	"privacy-chat/internal/models"
	"privacy-chat/internal/repository"
	"privacy-chat/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 20,
	WriteBufferSize: 1 << 20,
	// Origins are open, same as the HTTP CORS policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler interface {
	ChatSocket(c *gin.Context)
	VideoSocket(c *gin.Context)
}

type wsHandler struct {
	messageRepo   repository.MessageRepository
	hub           *hub.Hub
	pool          *validator.Pool
	requireSingle bool
	logger        *zap.Logger
}

func NewWSHandler(messageRepo repository.MessageRepository, h *hub.Hub, pool *validator.Pool, requireSingleDefault bool, logger *zap.Logger) WSHandler {
	return &wsHandler{
		messageRepo:   messageRepo,
		hub:           h,
		pool:          pool,
		requireSingle: requireSingleDefault,
		logger:        logger,
	}
}

// chatEvent is an inbound frame on the chat socket. Type selects which
// of the remaining fields matter.
type chatEvent struct {
	Type     string  `json:"type"`
	Username string  `json:"username,omitempty"`
	Sender   string  `json:"sender,omitempty"`
	Text     string  `json:"text,omitempty"`
	Private  bool    `json:"private,omitempty"`
	Receiver *string `json:"receiver,omitempty"`
	Status   string  `json:"status,omitempty"`
}

// ChatSocket handles GET /ws: registration events and text messages.
func (h *wsHandler) ChatSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade chat socket", zap.Error(err))
		return
	}
	defer ws.Close()

	h.hub.Connect(ws)
	defer h.hub.Disconnect(ws)

	for {
		var event chatEvent
		if err := ws.ReadJSON(&event); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("Chat socket closed", zap.Error(err))
			}
			return
		}

		switch event.Type {
		case "register":
			if event.Username != "" {
				h.hub.Register(ws, event.Username)
			}

		case models.EnvelopeMessage:
			status := event.Status
			if status == "" {
				status = models.StatusValid
			}
			if !models.ValidStatus(status) {
				// Rejected before the write; the sender is told, the
				// rest of the room never sees the event.
				if err := h.hub.Send(ws, models.Envelope{Type: models.EnvelopeError, Data: "Invalid status. Valid values: valid, invalid"}); err != nil {
					h.logger.Debug("Failed to write error reply", zap.Error(err))
				}
				continue
			}
			msg := &models.Message{
				Sender:   event.Sender,
				Text:     event.Text,
				Private:  event.Private,
				Receiver: event.Receiver,
				Status:   status,
			}
			if err := h.messageRepo.SaveMessage(msg); err != nil {
				h.logger.Error("Failed to save chat message", zap.Error(err))
				continue
			}
			h.hub.BroadcastPersonalized(models.EnvelopeMessage, msg)
		}
	}
}

// VideoSocket handles GET /ws/video: each inbound frame is judged on
// the worker pool and its verdict written back. Frames from one
// connection are submitted and answered strictly in order because the
// loop awaits each verdict before reading the next frame. When the
// client disconnects mid-judgment the in-flight frame completes on its
// worker and the verdict is dropped with the connection.
func (h *wsHandler) VideoSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade video socket", zap.Error(err))
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		req := models.FrameJudgmentRequest{RequireSingle: h.requireSingle}
		if err := ws.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("Video socket closed", zap.Error(err))
			}
			return
		}

		verdict, err := h.pool.Judge(ctx, req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			verdict = models.FrameVerdict{Status: models.VerdictError, Message: err.Error(), MessageID: req.MessageID}
		}

		if err := ws.WriteJSON(verdict); err != nil {
			h.logger.Debug("Failed to write verdict", zap.Error(err))
			return
		}
	}
}
