package realtime

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message or pong from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size accepted from the server.
	maxMessageSize = 64 * 1024

	// Outbound frames buffered before Emit reports the connection as stalled.
	sendBuffer = 64
)

// conn is one live websocket connection with its read and write pumps
type conn struct {
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger *slog.Logger

	closeOnce sync.Once
	onEvent   func(*types.Event)
	onClose   func(c *conn, err error)
}

func newConn(ws *websocket.Conn, logger *slog.Logger, onEvent func(*types.Event), onClose func(*conn, error)) *conn {
	return &conn{
		ws:      ws,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		logger:  logger,
		onEvent: onEvent,
		onClose: onClose,
	}
}

func (c *conn) start() {
	go c.writePump()
	go c.readPump()
}

// readPump pumps frames from the server to the event callback. A frame may
// hold several newline-separated events when the server batched its queue.
func (c *conn) readPump() {
	var readErr error
	defer func() {
		c.shutdown(false)
		c.onClose(c, readErr)
	}()

	extend := func() {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
	}

	c.ws.SetReadLimit(maxMessageSize)
	extend()
	c.ws.SetPongHandler(func(string) error {
		extend()
		return nil
	})
	c.ws.SetPingHandler(func(data string) error {
		extend()
		err := c.ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				readErr = err
			}
			return
		}
		extend()

		for _, frame := range bytes.Split(message, []byte{'\n'}) {
			frame = bytes.TrimSpace(frame)
			if len(frame) == 0 {
				continue
			}
			var ev types.Event
			if err := json.Unmarshal(frame, &ev); err != nil {
				c.logger.Warn("Dropping malformed realtime frame", slog.String("error", err.Error()))
				continue
			}
			c.onEvent(&ev)
		}
	}
}

// writePump pumps queued frames and keepalive pings to the server
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("Realtime write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue queues a frame without blocking
func (c *conn) enqueue(data []byte) error {
	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// shutdown stops the pumps. A deliberate close lets the write pump send a
// close frame before the socket is torn down.
func (c *conn) shutdown(deliberate bool) {
	c.closeOnce.Do(func() {
		close(c.done)
		if !deliberate {
			c.ws.Close()
		}
	})
}
