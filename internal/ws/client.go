package ws

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Packet is the wire frame exchanged with real-time clients
type Packet struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client wraps one websocket connection. Writes are serialized, and
// emitting to a connection that has gone away is a silent no-op.
type Client struct {
	// ID identifies the connection in logs across its lifetime
	ID string

	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// NewClient wraps an upgraded websocket connection
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
	}
}

// Emit sends one event frame to the client. Errors mark the connection as
// gone; they are never surfaced to the producer.
func (c *Client) Emit(event string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if err := c.conn.WriteJSON(Packet{Event: event, Data: payload}); err != nil {
		c.closed = true
	}
}

// Close marks the client gone and closes the underlying connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}
