package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// wsServer is a scripted realtime endpoint
type wsServer struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns []*websocket.Conn

	received  chan types.Event
	connected chan string
	reject    atomic.Bool
}

func newWSServer(t *testing.T) *wsServer {
	s := &wsServer{
		t:         t,
		received:  make(chan types.Event, 64),
		connected: make(chan string, 16),
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(func() {
		s.dropAll()
		s.srv.Close()
	})
	return s
}

func (s *wsServer) handle(w http.ResponseWriter, r *http.Request) {
	if s.reject.Load() {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, ws)
	s.mu.Unlock()
	s.connected <- r.URL.Query().Get("token")

	go func() {
		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var ev types.Event
			if json.Unmarshal(msg, &ev) == nil {
				s.received <- ev
			}
		}
	}()
}

func (s *wsServer) url() string {
	return "ws" + s.srv.URL[len("http"):] + "/ws"
}

func (s *wsServer) latest() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(s.t, s.conns)
	return s.conns[len(s.conns)-1]
}

func (s *wsServer) connCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *wsServer) push(name types.EventName, data interface{}, version uint64) {
	s.t.Helper()
	ev, err := types.NewEvent(name, data)
	require.NoError(s.t, err)
	ev.Version = version
	frame, err := json.Marshal(ev)
	require.NoError(s.t, err)
	s.pushRaw(frame)
}

func (s *wsServer) pushRaw(frame []byte) {
	s.t.Helper()
	require.NoError(s.t, s.latest().WriteMessage(websocket.TextMessage, frame))
}

func (s *wsServer) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

func (s *wsServer) waitConnected(t *testing.T) string {
	t.Helper()
	select {
	case token := <-s.connected:
		return token
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for connection")
		return ""
	}
}

func (s *wsServer) waitReceived(t *testing.T) types.Event {
	t.Helper()
	select {
	case ev := <-s.received:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for client frame")
		return types.Event{}
	}
}

func (s *wsServer) assertNothingReceived(t *testing.T) {
	t.Helper()
	select {
	case ev := <-s.received:
		t.Fatalf("unexpected frame %s", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

// collector records the events a handler sees
type collector struct {
	mu     sync.Mutex
	events []*types.Event
}

func (c *collector) handle(ev *types.Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *collector) versions() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint64, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Version)
	}
	return out
}
