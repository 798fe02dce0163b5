// Package realtime maintains the single authenticated websocket connection
// shared by every mounted screen and fans its events out to subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

var (
	ErrNotConnected   = errors.New("realtime channel is not connected")
	ErrSendBufferFull = errors.New("realtime send buffer is full")
	ErrSuperseded     = errors.New("realtime connection attempt superseded")
	ErrConnectionLost = errors.New("realtime connection lost")
	// ErrRejected wraps a handshake the server refused with 401
	ErrRejected = errors.New("realtime handshake rejected")
)

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// StateListener observes state changes. err is set when the channel fell to
// Disconnected because of a transport failure rather than a Disconnect call.
type StateListener func(state State, err error)

// RoomEvents pairs each client-to-server join event with its leave event
var RoomEvents = map[types.EventName]types.EventName{
	types.EventJoinChallenge: types.EventLeaveChallenge,
}

type roomKey struct {
	join types.EventName
	data string
}

type Channel struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger
	reg    *registry

	mu       sync.Mutex
	state    State
	current  *conn
	gen      uint64
	rooms    map[roomKey]int
	versions map[string]uint64

	lisMu     sync.Mutex
	listeners map[int]StateListener
	nextLis   int
}

// NewChannel creates a disconnected channel for the websocket endpoint at
// rawURL (for example ws://localhost:5000/ws)
func NewChannel(rawURL string, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	return &Channel{
		url:       rawURL,
		dialer:    &dialer,
		logger:    logger,
		reg:       newRegistry(),
		rooms:     make(map[roomKey]int),
		versions:  make(map[string]uint64),
		listeners: make(map[int]StateListener),
	}
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens a connection authenticated with token. Any existing
// connection is torn down first so handlers never see duplicate frames.
func (c *Channel) Connect(ctx context.Context, token string) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	prev := c.current
	c.current = nil
	c.mu.Unlock()

	if prev != nil {
		prev.shutdown(true)
	}
	if !c.setStateFor(gen, Connecting, nil) {
		return ErrSuperseded
	}

	u, err := url.Parse(c.url)
	if err != nil {
		c.setStateFor(gen, Disconnected, err)
		return fmt.Errorf("invalid realtime url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	ws, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			err = fmt.Errorf("%w: %v", ErrRejected, err)
		}
		c.setStateFor(gen, Disconnected, err)
		return err
	}

	cn := newConn(ws, c.logger, c.Dispatch, c.connClosed)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		ws.Close()
		return ErrSuperseded
	}
	c.current = cn
	c.versions = make(map[string]uint64)
	joins := make([]roomKey, 0, len(c.rooms))
	for key := range c.rooms {
		joins = append(joins, key)
	}
	c.mu.Unlock()

	cn.start()
	for _, key := range joins {
		if err := c.send(cn, key.join, json.RawMessage(key.data)); err != nil {
			c.logger.Warn("Failed to rejoin room", slog.String("event", string(key.join)), slog.String("error", err.Error()))
		}
	}

	// a Disconnect or newer Connect since the swap above owns the state now
	if !c.setStateFor(gen, Connected, nil) {
		return ErrSuperseded
	}
	c.logger.Info("Realtime channel connected")
	return nil
}

// Disconnect closes the connection, if any. Registered handlers and room
// memberships survive and apply to the next connection.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.gen++
	prev := c.current
	c.current = nil
	c.mu.Unlock()

	if prev != nil {
		prev.shutdown(true)
		c.logger.Info("Realtime channel disconnected")
	}
	c.setState(Disconnected, nil)
}

// On registers fn for the named event
func (c *Channel) On(name types.EventName, fn Handler) Subscription {
	return c.reg.add(name, fn)
}

// Off removes exactly the given registration and reports whether it existed
func (c *Channel) Off(sub Subscription) bool {
	return c.reg.remove(sub)
}

// HandlerCount returns the number of live registrations for name
func (c *Channel) HandlerCount(name types.EventName) int {
	return c.reg.count(name)
}

func (c *Channel) HandlerTotal() int {
	return c.reg.total()
}

// Emit sends a client-to-server event. Room join and leave events are
// reference counted across callers and remembered while disconnected, so a
// room stays joined while any screen needs it and is rejoined on reconnect.
func (c *Channel) Emit(name types.EventName, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", name, err)
	}

	c.mu.Lock()
	cn := c.current

	if _, isJoin := RoomEvents[name]; isJoin {
		key := roomKey{join: name, data: string(data)}
		c.rooms[key]++
		first := c.rooms[key] == 1
		c.mu.Unlock()

		if !first || cn == nil {
			return nil
		}
		return c.send(cn, name, data)
	}

	if join, isLeave := joinFor(name); isLeave {
		key := roomKey{join: join, data: string(data)}
		if c.rooms[key] > 1 {
			c.rooms[key]--
			c.mu.Unlock()
			return nil
		}
		delete(c.rooms, key)
		c.mu.Unlock()

		if cn == nil {
			return nil
		}
		return c.send(cn, name, data)
	}
	c.mu.Unlock()

	if cn == nil {
		return ErrNotConnected
	}
	return c.send(cn, name, data)
}

func joinFor(leave types.EventName) (types.EventName, bool) {
	for join, l := range RoomEvents {
		if l == leave {
			return join, true
		}
	}
	return "", false
}

func (c *Channel) send(cn *conn, name types.EventName, data json.RawMessage) error {
	frame, err := json.Marshal(types.Event{
		Type:      name,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return cn.enqueue(frame)
}

// Dispatch applies the optional version guard and hands ev to every handler
// registered for its name. The read pump calls it for each inbound frame; the
// sample data source calls it to replay simulated activity.
func (c *Channel) Dispatch(ev *types.Event) {
	if ev.Version > 0 {
		key := string(ev.Type) + "\x00" + ev.Scope

		c.mu.Lock()
		last := c.versions[key]
		if ev.Version <= last {
			c.mu.Unlock()
			c.logger.Debug("Dropping stale realtime event",
				slog.String("event", string(ev.Type)),
				slog.Uint64("version", ev.Version),
				slog.Uint64("last", last))
			return
		}
		c.versions[key] = ev.Version
		c.mu.Unlock()
	}

	c.reg.dispatch(ev)
}

func (c *Channel) connClosed(cn *conn, err error) {
	c.mu.Lock()
	if c.current != cn {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.mu.Unlock()

	if err == nil {
		err = ErrConnectionLost
	}
	c.logger.Warn("Realtime connection dropped", slog.String("error", err.Error()))
	c.setState(Disconnected, err)
}


// OnStateChange registers fn for state changes. The returned func removes it.
func (c *Channel) OnStateChange(fn StateListener) func() {
	c.lisMu.Lock()
	id := c.nextLis
	c.nextLis++
	c.listeners[id] = fn
	c.lisMu.Unlock()

	return func() {
		c.lisMu.Lock()
		delete(c.listeners, id)
		c.lisMu.Unlock()
	}
}

func (c *Channel) setState(s State, err error) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()

	if changed {
		c.notifyState(s, err)
	}
}

// setStateFor changes the state only while gen is still the latest
// connection attempt and reports whether it did
func (c *Channel) setStateFor(gen uint64, s State, err error) bool {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	changed := c.state != s
	c.state = s
	c.mu.Unlock()

	if changed {
		c.notifyState(s, err)
	}
	return true
}

func (c *Channel) notifyState(s State, err error) {

	c.lisMu.Lock()
	fns := make([]StateListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.lisMu.Unlock()

	for _, fn := range fns {
		fn(s, err)
	}
}
