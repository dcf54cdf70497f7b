package wsHandler

import (
	"context"
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/skyraal/humanaiconnection/domain"
	"github.com/skyraal/humanaiconnection/internal/api/ws/hub"
	"go.uber.org/zap"
)

type Binder interface {
	Serve(conn hub.Conn) error
}

// WebSocketRoomHandler hands upgraded connections to the hub.
type WebSocketRoomHandler struct {
	hub Binder
}

type WebSocketRoomRequest struct {
}

func NewWebSocketRoomHandler(binder Binder) *WebSocketRoomHandler {
	return &WebSocketRoomHandler{
		hub: binder,
	}
}

func (h *WebSocketRoomHandler) sendErrorAndClose(conn *websocket.Conn, msg string, kind domain.Kind) {
	errorMessage := domain.WebSocketErrorMessage{
		Type:    "error",
		Message: msg,
		Kind:    kind,
	}
	if err := conn.WriteJSON(errorMessage); err != nil {
		zap.L().Debug("Failed to send error message to client", zap.Error(err))
	}
	conn.Close()
}

func (h *WebSocketRoomHandler) HandleWS(c *websocket.Conn, ctx context.Context, req *WebSocketRoomRequest) {
	if err := h.hub.Serve(c); err != nil {
		if errors.Is(err, hub.ErrHubClosed) {
			h.sendErrorAndClose(c, "server is shutting down", domain.KindInternal)
			return
		}
		zap.L().Error("websocket session failed", zap.Error(err))
		c.Close()
	}
}
