package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	// idleTimeout is how long a client may go without a pong before it is
	// dropped. pingEvery must stay below it.
	idleTimeout = 60 * time.Second
	pingEvery   = idleTimeout * 9 / 10

	// queueDepth is the per-client outgoing buffer. A client that falls this
	// far behind is disconnected.
	queueDepth = 16

	maxInbound = 512
)

type client struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn:   conn,
		remote: conn.RemoteAddr().String(),
		send:   make(chan []byte, queueDepth),
	}
}

// writeLoop is the only goroutine writing data frames to conn. It returns
// when send is closed or a write fails.
func (c *client) writeLoop() {
	ping := time.NewTicker(pingEvery)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.control(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("ws: write failed", "remote", c.remote, "err", err)
				return
			}

		case <-ping.C:
			if err := c.control(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) control(messageType int, data []byte) error {
	return c.conn.WriteControl(messageType, data, time.Now().Add(writeWait))
}

// readLoop discards anything the client sends and keeps the idle deadline
// fresh on every pong. It returns once the connection is gone.
func (c *client) readLoop() {
	defer c.conn.Close()

	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	}
	c.conn.SetReadLimit(maxInbound)
	extend("") //nolint:errcheck
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("ws: client gone", "remote", c.remote, "err", err)
			}
			return
		}
	}
}
