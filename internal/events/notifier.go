package events

import (
	"log/slog"

	"github.com/princekumarofficial/challenge-tracker/internal/storage"
	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/types/social"
)

// Notification types created by the backend
const (
	NotificationAchievement   = "achievement"
	NotificationChallenge     = "challenge"
	NotificationFriendRequest = social.NotificationFriendRequest
	NotificationFriendAccept  = social.NotificationFriendRequestAccepted
)

// Notifier stores a notification and pushes it, unless the recipient turned
// that category off
type Notifier struct {
	store     storage.Notifications
	publisher Publisher
	logger    *slog.Logger
}

func NewNotifier(store storage.Notifications, publisher Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{store: store, publisher: publisher, logger: logger}
}

func enabled(s notifications.Settings, kind string) bool {
	switch kind {
	case NotificationAchievement:
		return s.Achievements
	case NotificationChallenge:
		return s.Challenges
	case NotificationFriendRequest, NotificationFriendAccept:
		return s.Social
	default:
		return true
	}
}

// Notify reports whether the notification was delivered
func (n *Notifier) Notify(userID, kind, title, message string) bool {
	settings, err := n.store.NotificationSettings(userID)
	if err != nil {
		n.logger.Warn("Failed to load notification settings", slog.String("user_id", userID), slog.String("error", err.Error()))
		return false
	}
	if !enabled(settings, kind) {
		return false
	}

	item, unread, err := n.store.AddNotification(userID, notifications.Item{
		Type:    kind,
		Title:   title,
		Message: message,
	})
	if err != nil {
		n.logger.Error("Failed to store notification", slog.String("user_id", userID), slog.String("error", err.Error()))
		return false
	}
	n.publisher.PublishNotification(userID, item, unread)
	return true
}
