package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ovenbird/gingerhaus/internal/room"
)

// ErrBackpressure means a member's send buffer is full. The frame is dropped;
// the slow client catches up from later full-state events or reconnects.
var ErrBackpressure = errors.New("ws: send buffer full")

const (
	sendBufferSize = 64
	writeTimeout   = 5 * time.Second
)

// wsConn wraps one websocket with a buffered outbound queue. It implements
// room.Sender; the room enqueues, the write pump drains.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func newWSConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn: c,
		send: make(chan []byte, sendBufferSize),
	}
}

func (c *wsConn) TrySend(ev room.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.enqueue(b)
}

func (c *wsConn) enqueue(b []byte) error {
	select {
	case c.send <- b:
		return nil
	default:
		return ErrBackpressure
	}
}

// Close is idempotent. Only call after the room has detached this sender;
// nothing may enqueue once the channel is closed.
func (c *wsConn) Close() {
	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}

func (c *wsConn) writePump(log zerolog.Logger) {
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			log.Debug().Err(err).Msg("write deadline")
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug().Err(err).Msg("write failed")
			return
		}
	}
}
