package bridge

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// sendQueueDepth bounds how far a slow browser can lag behind the fan-out
// before its writes start blocking the broadcaster. There is no backpressure
// policy beyond natural write failure (out of scope), so a full queue simply
// makes that socket's next send wait.
const sendQueueDepth = 32

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// conn is one browser WebSocket connection: a read pump that decodes
// commands and a write pump that serialises broadcasts and replies onto a
// single per-socket send queue, so concurrent writers never interleave
// frames.
type conn struct {
	ws   *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{
		ws:   ws,
		send: make(chan []byte, sendQueueDepth),
	}
}

// enqueue schedules view for delivery on this socket. It never blocks the
// caller: a socket too far behind just drops the fan-out by closing, which
// its reader pump will detect and clean up. It is a no-op once the
// connection has been closed, so a broadcast racing a closing socket never
// sends on a closed channel.
func (c *conn) enqueue(view interface{}) {
	b, err := json.Marshal(view)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

func (c *conn) writePump() error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (c *conn) readPump(handle func(raw []byte)) error {
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		handle(raw)
	}
}

func (c *conn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.ws.Close()
}
