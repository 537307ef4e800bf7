package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"dispenser-bridge/backend/pkg/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize   = 4096
	clientSendBuffer = 256
)

// Client is one websocket connection. Outbound messages go through send so
// the hub never blocks on a slow connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Send queues an envelope for this client only. Used for replaying last known
// readings on connect. Returns false when the client's queue is full.
func (c *Client) Send(event string, data any) bool {
	msg, err := c.hub.encode(event, data)
	if err != nil {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// readPump decodes command envelopes from the client and hands them to the
// hub's command handler. It owns all reads on the connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.l.Warn("unexpected client close", utils.ErrAttr(err))
			}

			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
			c.hub.l.Warn("discarding malformed client message")

			continue
		}

		if c.hub.commands != nil {
			c.hub.commands.HandleCommand(c, env.Event, env.Data)
		}
	}
}

// writePump flushes queued messages and keeps the connection alive with
// pings. It owns all writes on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
