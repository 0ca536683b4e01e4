package wsclient

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/pokerlens/pokerlens/internal/logging"
)

// Option configures a Client.
type Option func(*Client)

// WithReconnectInterval sets the fixed delay between reconnect attempts.
func WithReconnectInterval(d time.Duration) Option {
	return func(c *Client) {
		c.reconnectInterval = d
	}
}

// WithMaxReconnectAttempts caps consecutive reconnect attempts. Once the cap
// is reached the client stays disconnected until Connect is called again.
func WithMaxReconnectAttempts(n int) Option {
	return func(c *Client) {
		c.maxReconnectAttempts = n
	}
}

// WithLogger sets the client logger.
func WithLogger(log *logging.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}
