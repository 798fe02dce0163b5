package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

// RoomPrefix namespaces challenge rooms
const RoomPrefix = "challenge:"

// Hub maintains the set of active clients and the rooms they joined, and
// broadcasts events to users, rooms or everyone
type Hub struct {
	// Registered clients mapped by user ID
	clients map[string]*Client

	// Room name to member clients
	rooms map[string]map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect clients and rooms
	mu sync.RWMutex

	// Channel to broadcast events
	broadcast chan *BroadcastMessage

	done     chan struct{}
	logger   *slog.Logger
	presence func(userID string, online bool)
}

// BroadcastMessage targets a set of users, a room, or every client
type BroadcastMessage struct {
	UserIDs []string
	Room    string
	All     bool
	Event   *types.Event
}

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// OnPresence sets the callback told when a user's first connection opens and
// when their last one closes. It must be set before Run.
func (h *Hub) OnPresence(fn func(userID string, online bool)) {
	h.presence = fn
}

// Run starts the hub's main loop and closes every client when ctx ends
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			// If user already has a connection, close the old one
			existing, replaced := h.clients[client.userID]
			if replaced {
				h.dropLocked(existing)
				h.logger.Info("Replaced existing WebSocket connection", slog.String("user_id", client.userID))
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			h.logger.Info("WebSocket client connected", slog.String("user_id", client.userID))

			if !replaced && h.presence != nil {
				h.presence(client.userID, true)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			current := h.clients[client.userID] == client
			if current {
				delete(h.clients, client.userID)
			}
			h.dropLocked(client)
			h.mu.Unlock()

			if current {
				h.logger.Info("WebSocket client disconnected", slog.String("user_id", client.userID))
				if h.presence != nil {
					h.presence(client.userID, false)
				}
			}

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// dropLocked removes client from every room and closes its send channel once
func (h *Hub) dropLocked(client *Client) {
	for room, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if !client.closed {
		client.closed = true
		close(client.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, client := range h.clients {
		h.dropLocked(client)
		delete(h.clients, userID)
	}
}

// RegisterClient registers a new client
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Join adds client to room. Joining twice is a no-op.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.closed {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[client] = true
	h.logger.Debug("Client joined room", slog.String("user_id", client.userID), slog.String("room", room))
}

// Leave removes client from room
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.logger.Debug("Client left room", slog.String("user_id", client.userID), slog.String("room", room))
}

// RoomSize returns the number of clients in room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) enqueue(message *BroadcastMessage) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Broadcast channel is full, dropping message", slog.String("event", string(message.Event.Type)))
	}
}

// BroadcastToUsers sends an event to specific users
func (h *Hub) BroadcastToUsers(userIDs []string, event *types.Event) {
	h.enqueue(&BroadcastMessage{UserIDs: userIDs, Event: event})
}

// BroadcastToUser sends an event to a specific user
func (h *Hub) BroadcastToUser(userID string, event *types.Event) {
	h.BroadcastToUsers([]string{userID}, event)
}

// BroadcastToRoom sends an event to every client in room
func (h *Hub) BroadcastToRoom(room string, event *types.Event) {
	h.enqueue(&BroadcastMessage{Room: room, Event: event})
}

// BroadcastAll sends an event to every connected client
func (h *Hub) BroadcastAll(event *types.Event) {
	h.enqueue(&BroadcastMessage{All: true, Event: event})
}

// deliver is the internal method that actually sends messages to clients.
// Sends happen under the read lock so no send channel is closed midway.
func (h *Hub) deliver(message *BroadcastMessage) {
	h.mu.RLock()
	var targets []*Client
	switch {
	case message.All:
		for _, client := range h.clients {
			targets = append(targets, client)
		}
	case message.Room != "":
		for client := range h.rooms[message.Room] {
			targets = append(targets, client)
		}
	default:
		for _, userID := range message.UserIDs {
			if client, ok := h.clients[userID]; ok {
				targets = append(targets, client)
			}
		}
	}

	var failed []*Client
	for _, client := range targets {
		if client.closed {
			continue
		}
		if err := client.SendEvent(message.Event); err != nil {
			h.logger.Error("Failed to send event to client",
				slog.String("user_id", client.userID),
				slog.String("error", err.Error()))
			failed = append(failed, client)
		}
	}
	h.mu.RUnlock()

	// Remove the clients whose buffers are full
	for _, client := range failed {
		go h.UnregisterClient(client)
	}
}

// GetConnectedUsers returns a list of currently connected user IDs
func (h *Hub) GetConnectedUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
