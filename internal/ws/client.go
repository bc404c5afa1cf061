package ws

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Client wraps a websocket connection with a write lock so room broadcasts
// from other goroutines never interleave with the handler's own writes.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
