package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/princekumarofficial/challenge-tracker/internal/storage"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/websocket"
)

// Publisher turns state changes into realtime events
type Publisher interface {
	PublishAward(userID string, award storage.Award)
	PublishNotification(userID string, item notifications.Item, unread int)
	PublishNotificationRead(userID, notificationID string, unread int)
	PublishNotificationDeleted(userID, notificationID string, unread int)
	PublishUnreadCount(userID string, unread int)
	PublishChallengeUpdate(patch types.ChallengePatch)
	PublishParticipantJoined(challengeID, userID, username string, count int)
	PublishParticipantCount(challengeID string, count int)
	PublishPresence(userID string, friendIDs []string, online bool)
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	BroadcastToUsers(userIDs []string, event *types.Event)
	BroadcastToRoom(room string, event *types.Event)
	BroadcastAll(event *types.Event)
	IsUserConnected(userID string) bool
}

// EventPublisher implements the Publisher interface. Every event carries a
// version that increases per event type and scope.
type EventPublisher struct {
	hub    WebSocketHub
	logger *slog.Logger

	mu       sync.Mutex
	versions map[string]uint64
}

var _ Publisher = (*EventPublisher)(nil)

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{
		hub:      hub,
		logger:   logger,
		versions: make(map[string]uint64),
	}
}

// build creates a versioned event. counterKey separates the version
// sequences of different recipients of unscoped events.
func (p *EventPublisher) build(name types.EventName, scope, counterKey string, data interface{}) *types.Event {
	ev, err := types.NewEvent(name, data)
	if err != nil {
		p.logger.Error("Failed to encode event", slog.String("event", string(name)), slog.String("error", err.Error()))
		return nil
	}
	ev.Scope = scope

	p.mu.Lock()
	key := string(name) + "|" + scope + "|" + counterKey
	p.versions[key]++
	ev.Version = p.versions[key]
	p.mu.Unlock()
	return ev
}

func (p *EventPublisher) toUser(userID string, name types.EventName, data interface{}) {
	// Only send if the user is connected
	if !p.hub.IsUserConnected(userID) {
		return
	}
	if ev := p.build(name, "", userID, data); ev != nil {
		p.hub.BroadcastToUser(userID, ev)
	}
}

// PublishAward tells the user about changed points, level and streak, and
// about an unlocked achievement
func (p *EventPublisher) PublishAward(userID string, award storage.Award) {
	profile := award.Profile
	p.toUser(userID, types.EventStatsUpdate, types.StatsUpdate{
		TotalPoints: &profile.Experience,
		Level:       &profile.Level,
		Streak:      &profile.Streak,
	})
	p.toUser(userID, types.EventPointsUpdate, types.PointsUpdate{Points: &profile.Experience})
	p.toUser(userID, types.EventStreakUpdate, types.StreakUpdate{Streak: &profile.Streak})
	if award.LeveledUp {
		p.toUser(userID, types.EventLevelUpdate, types.LevelUpdate{Level: &profile.Level})
	}
	if award.Achievement != nil {
		p.toUser(userID, types.EventAchievementUnlocked, award.Achievement)
	}
}

type countPayload struct {
	Count int `json:"count"`
}

type notificationRef struct {
	NotificationID string `json:"notificationId"`
}

func (p *EventPublisher) PublishNotification(userID string, item notifications.Item, unread int) {
	p.toUser(userID, types.EventNewNotification, item)
	p.PublishUnreadCount(userID, unread)
}

func (p *EventPublisher) PublishNotificationRead(userID, notificationID string, unread int) {
	p.toUser(userID, types.EventNotificationRead, notificationRef{NotificationID: notificationID})
	p.PublishUnreadCount(userID, unread)
}

func (p *EventPublisher) PublishNotificationDeleted(userID, notificationID string, unread int) {
	p.toUser(userID, types.EventNotificationDeleted, notificationRef{NotificationID: notificationID})
	p.PublishUnreadCount(userID, unread)
}

func (p *EventPublisher) PublishUnreadCount(userID string, unread int) {
	p.toUser(userID, types.EventUnreadCountUpdate, countPayload{Count: unread})
}

// PublishChallengeUpdate broadcasts a partial challenge to every client
func (p *EventPublisher) PublishChallengeUpdate(patch types.ChallengePatch) {
	if ev := p.build(types.EventChallengeUpdate, patch.ID, "", patch); ev != nil {
		p.hub.BroadcastAll(ev)
	}
}

// PublishParticipantJoined tells the challenge room who joined and
// broadcasts the new count
func (p *EventPublisher) PublishParticipantJoined(challengeID, userID, username string, count int) {
	joined := types.ParticipantJoined{ChallengeID: challengeID, UserID: userID, Username: username}
	if ev := p.build(types.EventParticipantJoined, challengeID, "", joined); ev != nil {
		p.hub.BroadcastToRoom(websocket.RoomPrefix+challengeID, ev)
	}
	p.PublishParticipantCount(challengeID, count)
}

func (p *EventPublisher) PublishParticipantCount(challengeID string, count int) {
	update := types.ParticipantCountUpdate{ChallengeID: challengeID, Count: &count}
	if ev := p.build(types.EventParticipantCountUpdate, challengeID, "", update); ev != nil {
		p.hub.BroadcastAll(ev)
	}
}

type presencePayload struct {
	UserID     string `json:"userId"`
	LastActive string `json:"lastActive,omitempty"`
}

// PublishPresence tells the user's connected friends that they came online
// or went offline
func (p *EventPublisher) PublishPresence(userID string, friendIDs []string, online bool) {
	name := types.EventFriendOnline
	payload := presencePayload{UserID: userID}
	if !online {
		name = types.EventFriendOffline
		payload.LastActive = time.Now().UTC().Format(time.RFC3339)
	}

	for _, friendID := range friendIDs {
		p.toUser(friendID, name, payload)
	}
}
