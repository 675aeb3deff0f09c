package server

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/neo/quizparty_backend/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 64
)

// client is one websocket connection with a buffered outbound queue
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func newClient(id string, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// enqueue hands a frame to the write pump without blocking the caller. A
// client that cannot drain its buffer loses frames; the next room snapshot
// resynchronises it.
func (c *client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		logging.LogWebSocketEvent("send_buffer_full", "", c.id, nil)
	}
}

// readPump feeds inbound frames into the event dispatcher until the
// connection drops.
func (c *client) readPump(s *Server) {
	defer func() {
		s.manager.Disconnect(c.id)
		s.hub.remove(c.id)
		c.conn.Close()
		logging.LogWebSocketEvent("disconnected", "", c.id, nil)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.LogWebSocketEvent("read_error", "", c.id, map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}
		s.dispatch(c.id, data)
	}
}

// writePump drains the send queue and keeps the connection alive with pings
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
