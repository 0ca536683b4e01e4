package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pokerlens/pokerlens/internal/logging"
	"github.com/pokerlens/pokerlens/internal/monitoring"
	"github.com/pokerlens/pokerlens/internal/types"
)

// sendBuffer is the per-client outbound queue; clients that fall this far
// behind start losing messages rather than blocking the hub.
const sendBuffer = 64

// Hub fans server-pushed envelopes out to every connected dashboard client.
type Hub struct {
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.RWMutex
	clients map[*connection]struct{}
	closed  bool
}

type connection struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger, metrics *monitoring.Metrics) *Hub {
	return &Hub{
		log:     log.Named("ws"),
		metrics: metrics,
		clients: make(map[*connection]struct{}),
	}
}

// Publish broadcasts a typed envelope to all connected clients.
func (h *Hub) Publish(msgType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.log.Error("failed to marshal message data",
			zap.String("type", msgType), zap.Error(err))
		return
	}

	env := types.Envelope{
		Type:      msgType,
		Data:      payload,
		Timestamp: time.Now().Unix(),
	}
	msg, err := json.Marshal(env)
	if err != nil {
		h.log.Error("failed to marshal envelope", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
			if h.metrics != nil {
				h.metrics.RecordWSMessage("out", msgType)
			}
		default:
			h.log.Warn("dropping message for slow client", zap.String("type", msgType))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects future registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		c.shutdown()
		delete(h.clients, c)
	}
}

func (h *Hub) register(c *connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	return true
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.shutdown()
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
}

// shutdown closes the send channel exactly once; the writer goroutine closes
// the underlying transport when it drains.
func (c *connection) shutdown() {
	c.once.Do(func() {
		close(c.send)
	})
}

// writeLoop drains the send queue onto the transport.
func (c *connection) writeLoop() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
