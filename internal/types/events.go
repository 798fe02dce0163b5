package types

import (
	"encoding/json"
	"time"
)

// EventName is the name a realtime event is published and subscribed under
type EventName string

// Server to client events
const (
	EventStatsUpdate            EventName = "stats_update"
	EventPointsUpdate           EventName = "points_update"
	EventLevelUpdate            EventName = "level_update"
	EventStreakUpdate           EventName = "streak_update"
	EventUnreadCountUpdate      EventName = "unread_count_update"
	EventAchievementUnlocked    EventName = "achievement_unlocked"
	EventNewNotification        EventName = "new_notification"
	EventChallengeUpdate        EventName = "challenge_update"
	EventParticipantJoined      EventName = "participant_joined"
	EventParticipantCountUpdate EventName = "participant_count_update"
	EventNotificationRead       EventName = "notification_read"
	EventNotificationDeleted    EventName = "notification_deleted"
	EventFriendOnline           EventName = "friend_online"
	EventFriendOffline          EventName = "friend_offline"
)

// Client to server events
const (
	EventJoinChallenge  EventName = "join_challenge"
	EventLeaveChallenge EventName = "leave_challenge"
)

// Event is the envelope every realtime frame is carried in, in both directions.
// Version is optional; when set it is monotonic per (Type, Scope).
type Event struct {
	Type      EventName       `json:"type"`
	Scope     string          `json:"scope,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Version   uint64          `json:"version,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(name EventName, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		Type:      name,
		Data:      raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Decode unmarshals the event payload into v
func (e *Event) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// StatsUpdate carries any subset of the user's progression counters.
// CurrentLevel is an older alias of Level still sent by some emitters.
type StatsUpdate struct {
	TotalPoints  *int `json:"totalPoints,omitempty"`
	Level        *int `json:"level,omitempty"`
	CurrentLevel *int `json:"currentLevel,omitempty"`
	Streak       *int `json:"streak,omitempty"`
}

// EffectiveLevel returns Level, falling back to CurrentLevel
func (s StatsUpdate) EffectiveLevel() *int {
	if s.Level != nil {
		return s.Level
	}
	return s.CurrentLevel
}

type PointsUpdate struct {
	Points *int `json:"points,omitempty"`
}

type LevelUpdate struct {
	Level *int `json:"level,omitempty"`
}

type StreakUpdate struct {
	Streak *int `json:"streak,omitempty"`
}

// Achievement is the payload of achievement_unlocked
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Points      int    `json:"points,omitempty"`
	UnlockedAt  string `json:"unlockedAt,omitempty"`
}

// ParticipantCountUpdate is scoped to one challenge
type ParticipantCountUpdate struct {
	ChallengeID string `json:"challengeId"`
	Count       *int   `json:"count,omitempty"`
}

// ParticipantJoined is scoped to one challenge
type ParticipantJoined struct {
	ChallengeID string `json:"challengeId"`
	UserID      string `json:"userId"`
	Username    string `json:"username,omitempty"`
}

// ChallengePatch is the payload of challenge_update. Only ID is mandatory.
type ChallengePatch struct {
	ID               string   `json:"id"`
	Title            *string  `json:"title,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Category         *string  `json:"category,omitempty"`
	Difficulty       *string  `json:"difficulty,omitempty"`
	ProgressPercent  *float64 `json:"progress,omitempty"`
	ParticipantCount *int     `json:"participantCount,omitempty"`
	LikeCount        *int     `json:"likes,omitempty"`
	PointsReward     *int     `json:"points,omitempty"`
	DaysRemaining    *int     `json:"daysRemaining,omitempty"`
}
