package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	sendBuffer = 256
)

// Client is one websocket connection with its buffered outbound queue.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
}

func newClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// trySend enqueues without blocking; a full buffer drops the frame.
func (c *Client) trySend(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		log.Warn().Str("module", "hub").Str("conn", c.ID).Msg("send buffer full, frame dropped")
		return false
	}
}

// ReadPump consumes inbound frames until the connection dies, feeding
// each frame to onMessage. onClose runs exactly once on the way out.
func (c *Client) ReadPump(readLimit int64, onMessage func([]byte), onClose func()) {
	defer func() {
		onClose()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("module", "hub").Str("conn", c.ID).Msg("websocket read")
			}
			break
		}
		onMessage(message)
	}
}

// WritePump drains the send queue and keeps the connection alive with
// periodic pings.
func (c *Client) WritePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("module", "hub").Str("conn", c.ID).Msg("websocket write")
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
