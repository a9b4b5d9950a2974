package websocket

import (
	"time"

	"investigative-ai-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is a middleman between one websocket connection and its session.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Session owning this connection's conversational state.
	Session *Session

	// Buffered channel of outbound messages.
	Send chan []byte

	logger logger.ILogger

	// onQuestion handles each incoming question message.
	onQuestion func(q QuestionMessage)
}

// deliver enqueues one frame without blocking. A false return means the
// peer is too slow and the frame was dropped.
func (c *Client) deliver(data []byte) bool {
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// readPump pumps messages from the websocket connection into the
// question handler. Runs in the connection's handler goroutine.
func (c *Client) readPump() {
	defer func() {
		c.Session.Close()
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WsClient", "Unexpected close", map[string]interface{}{
					"session_id": c.Session.ID(),
					"error":      err.Error(),
				})
			}
			break
		}

		q, err := parseQuestion(raw)
		if err != nil {
			// Malformed input never starts a run
			c.deliver(NewErrorMessage(err.Error()))
			continue
		}
		c.onQuestion(q)
	}
}

// writePump pumps messages from the session to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
