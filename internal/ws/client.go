package ws

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// Client is one live websocket connection joined to a user room.
type Client struct {
	UserID string

	conn *websocket.Conn
	send chan Event

	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan Event, 256),
	}
}

// enqueue hands the event to the writer goroutine. Returns false when
// the buffer is full; the event is dropped so one slow consumer never
// stalls the room.
func (c *Client) enqueue(ev Event) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// ReadPump consumes inbound frames until the peer goes away. Clients
// only push mutations over REST; the read side exists to service
// pong handlers and detect disconnects.
func (c *Client) ReadPump(maxMsgSize int64, pongWait time.Duration) {
	defer func() { _ = c.conn.Close() }()
	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WritePump drains the send buffer in FIFO order and keeps the
// connection alive with pings.
func (c *Client) WritePump(pingInterval, writeDeadline time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
