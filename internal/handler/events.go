package handler

import (
	"net/http"
	"time"

	"loyalty-wallet/internal/events"
	"loyalty-wallet/internal/logging"
	"loyalty-wallet/internal/middleware"
	"loyalty-wallet/internal/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	eventWriteWait  = 10 * time.Second
	eventPingPeriod = 30 * time.Second
	eventBuffer     = 16
)

// EventHandler streams identity and sync events of the signed-in user over a
// websocket.
type EventHandler struct {
	upgrader websocket.Upgrader
	bus      events.Bus
	logger   *zap.Logger
}

// NewEventHandler creates a new event stream handler.
func NewEventHandler(bus events.Bus, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		bus:    bus,
		logger: logging.OrNop(logger),
	}
}

// Stream handles GET /api/v1/events
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	out := make(chan model.Event, eventBuffer)
	unsubscribe, err := h.bus.Subscribe(func(e model.Event) {
		if e.UserID != identity.UserID {
			return
		}
		select {
		case out <- e:
		default:
			h.logger.Warn("event stream full, dropping event", zap.String("type", e.Type))
		}
	})
	if err != nil {
		h.logger.Error("failed to subscribe to events", zap.Error(err))
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer unsubscribe()

	// Subscribed before the handshake completes so no event published after
	// the client sees the upgrade is missed.
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade to websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("event stream opened", zap.String("user_id", identity.UserID))
	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(conn, out, done)

	h.logger.Info("event stream closed", zap.String("user_id", identity.UserID))
}

// readLoop discards client messages and closes done when the peer goes away.
func (h *EventHandler) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (h *EventHandler) writeLoop(conn *websocket.Conn, out <-chan model.Event, done <-chan struct{}) {
	ping := time.NewTicker(eventPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case e := <-out:
			conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteJSON(e); err != nil {
				h.logger.Debug("failed to write event", zap.Error(err))
				return
			}
			if e.Type == model.EventSignedOut {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "signed out"),
					time.Now().Add(eventWriteWait))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventWriteWait)); err != nil {
				return
			}
		}
	}
}
