package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pokerlens/pokerlens/internal/logging"
	"github.com/pokerlens/pokerlens/internal/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served from a different origin in dev
	},
}

// Handler upgrades dashboard connections and attaches them to the hub.
type Handler struct {
	hub *Hub
	log *logging.Logger
}

// NewHandler creates a WebSocket handler for the hub.
func NewHandler(hub *Hub, log *logging.Logger) *Handler {
	return &Handler{hub: hub, log: log.Named("ws")}
}

// HandleConnection handles the WebSocket upgrade and the inbound read loop.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &connection{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if !h.hub.register(client) {
		conn.Close()
		return
	}
	go client.writeLoop()

	h.welcome(client)

	defer h.hub.unregister(client)
	for {
		var env types.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		switch env.Type {
		case "ping":
			h.enqueue(client, types.Envelope{
				Type:      types.MsgPong,
				Timestamp: time.Now().Unix(),
			})
		default:
			// Dashboard clients are consumers; anything else is ignored.
		}
	}
}

func (h *Handler) welcome(c *connection) {
	data, _ := json.Marshal(map[string]string{"message": "connected to PokerLens analytics"})
	h.enqueue(c, types.Envelope{
		Type:      types.MsgSystem,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) enqueue(c *connection, env types.Envelope) {
	msg, err := json.Marshal(env)
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
