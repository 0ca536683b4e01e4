package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pokerlens/pokerlens/internal/logging"
	"github.com/pokerlens/pokerlens/internal/types"
)

// ErrNotConnected is returned by Send while the client has no live transport.
var ErrNotConnected = errors.New("client is not connected")

// MessageHandler receives the data payload of a matching envelope.
type MessageHandler func(data json.RawMessage)

type subscription struct {
	id int
	fn MessageHandler
}

// Client maintains a single WebSocket connection to the analytics feed and
// dispatches inbound {type, data} envelopes to type-keyed subscribers.
//
// Clients are constructed explicitly and passed to consumers; there is no
// package-level singleton. A dropped connection is redialed at a fixed
// interval up to a bounded number of consecutive attempts, after which the
// client remains disconnected (observable via State) until Connect is called
// again. An explicit Disconnect suppresses reconnection entirely.
type Client struct {
	url    string
	dialer *websocket.Dialer
	log    *logging.Logger

	reconnectInterval    time.Duration
	maxReconnectAttempts int

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	stopped  bool
	attempts int

	writeMu sync.Mutex

	subMu  sync.Mutex
	nextID int
	subs   map[string][]subscription
}

// New creates a client for the given WebSocket URL.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:                  url,
		dialer:               websocket.DefaultDialer,
		log:                  logging.NewNop(),
		reconnectInterval:    3 * time.Second,
		maxReconnectAttempts: 5,
		subs:                 make(map[string][]subscription),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the transport. It is a no-op while connecting or connected.
// A dial failure returns the error and, like an unexpected close, starts the
// reconnection policy in the background. The context governs the dial and
// all reconnect attempts that follow from it.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.stopped = false
	c.attempts = 0
	c.state = StateConnecting
	c.mu.Unlock()

	return c.dial(ctx)
}

// Disconnect closes the transport and suppresses reconnection.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.stopped = true
	c.state = StateDisconnected
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return conn.Close()
}

// Subscribe registers a handler for envelopes of the given type and returns
// a function that removes exactly that handler. Handlers for the same type
// run synchronously in registration order.
func (c *Client) Subscribe(msgType string, fn MessageHandler) func() {
	c.subMu.Lock()
	c.nextID++
	sid := c.nextID
	c.subs[msgType] = append(c.subs[msgType], subscription{id: sid, fn: fn})
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			list := c.subs[msgType]
			for i, s := range list {
				if s.id == sid {
					c.subs[msgType] = append(list[:i], list[i+1:]...)
					break
				}
			}
			if len(c.subs[msgType]) == 0 {
				delete(c.subs, msgType)
			}
		})
	}
}

// Send writes a typed envelope to the server.
func (c *Client) Send(msgType string, data interface{}) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	var payload json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal %s data: %w", msgType, err)
		}
		payload = b
	}

	env := types.Envelope{Type: msgType, Data: payload, Timestamp: time.Now().Unix()}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(env)
}

func (c *Client) dial(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		stopped := c.stopped
		c.mu.Unlock()

		if !stopped {
			c.scheduleReconnect(ctx)
		}
		return fmt.Errorf("failed to dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.stopped {
		// Disconnect raced the dial; drop the fresh transport.
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	c.mu.Unlock()

	c.log.Debug("connected", zap.String("url", c.url))
	go c.readLoop(ctx, conn)
	return nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(ctx, conn, err)
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) handleDisconnect(ctx context.Context, conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// A stale read loop from a previous transport; nothing to do.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected
	stopped := c.stopped
	c.mu.Unlock()

	conn.Close()

	if stopped {
		return
	}

	c.log.Warn("connection lost", zap.Error(err))
	c.scheduleReconnect(ctx)
}

// scheduleReconnect arms one fixed-interval redial attempt, bounded by the
// consecutive-attempt cap. Each failed dial schedules the next attempt.
func (c *Client) scheduleReconnect(ctx context.Context) {
	c.mu.Lock()
	if c.stopped || c.attempts >= c.maxReconnectAttempts {
		exhausted := !c.stopped
		c.mu.Unlock()
		if exhausted {
			c.log.Warn("reconnect attempts exhausted",
				zap.Int("attempts", c.maxReconnectAttempts))
		}
		return
	}
	c.attempts++
	attempt := c.attempts
	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectInterval):
		}

		c.mu.Lock()
		if c.stopped || c.state != StateDisconnected {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()

		c.log.Debug("reconnecting", zap.Int("attempt", attempt))
		_ = c.dial(ctx)
	}()
}

// dispatch parses an inbound envelope and invokes every subscriber of its
// type. Malformed payloads are skipped; a panicking handler does not prevent
// the remaining handlers from running.
func (c *Client) dispatch(raw []byte) {
	if c.State() != StateConnected {
		return
	}

	var env types.Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
		c.log.Debug("skipping malformed message", zap.Error(err))
		return
	}

	c.subMu.Lock()
	handlers := make([]subscription, len(c.subs[env.Type]))
	copy(handlers, c.subs[env.Type])
	c.subMu.Unlock()

	for _, s := range handlers {
		c.invoke(env.Type, s.fn, env.Data)
	}
}

func (c *Client) invoke(msgType string, fn MessageHandler, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("subscriber panicked",
				zap.String("type", msgType), zap.Any("panic", r))
		}
	}()
	fn(data)
}
