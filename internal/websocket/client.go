package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var ErrSendBufferFull = errors.New("send buffer full")

// Upgrader accepts connections from any origin; the devserver is local only
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a WebSocket client connection
type Client struct {
	// The websocket connection
	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	// Set by the hub, under its lock, once send is closed
	closed bool

	// User ID associated with this connection
	userID string

	// Hub instance
	hub *Hub
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, userID string, hub *Hub) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		hub:    hub,
	}
}

// readPump reads room requests from the connection until it fails
func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket error", slog.String("error", err.Error()))
			}
			break
		}
		for _, frame := range bytes.Split(message, []byte{'\n'}) {
			c.handle(frame)
		}
	}
}

func (c *Client) handle(frame []byte) {
	if len(bytes.TrimSpace(frame)) == 0 {
		return
	}

	var ev types.Event
	if err := json.Unmarshal(frame, &ev); err != nil {
		c.hub.logger.Warn("Ignoring malformed frame", slog.String("user_id", c.userID), slog.String("error", err.Error()))
		return
	}

	switch ev.Type {
	case types.EventJoinChallenge, types.EventLeaveChallenge:
		id, err := challengeID(ev.Data)
		if err != nil {
			c.hub.logger.Warn("Ignoring room request without challenge id",
				slog.String("user_id", c.userID), slog.String("event", string(ev.Type)))
			return
		}
		if ev.Type == types.EventJoinChallenge {
			c.hub.Join(c, RoomPrefix+id)
		} else {
			c.hub.Leave(c, RoomPrefix+id)
		}
	default:
		c.hub.logger.Debug("Ignoring client event", slog.String("event", string(ev.Type)))
	}
}

// challengeID accepts a bare id or an object carrying challengeId or id
func challengeID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil && id != "" {
		return id, nil
	}
	var obj struct {
		ChallengeID string `json:"challengeId"`
		ID          string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", err
	}
	if obj.ChallengeID != "" {
		return obj.ChallengeID, nil
	}
	if obj.ID != "" {
		return obj.ID, nil
	}
	return "", errors.New("missing challenge id")
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

// SendEvent queues an event for this client. The caller must hold the hub
// lock so the send channel cannot be closed concurrently.
func (c *Client) SendEvent(event *types.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Start starts the client's read and write pumps
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// UserID returns the user ID associated with this client
func (c *Client) UserID() string {
	return c.userID
}
