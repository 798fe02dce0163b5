package notifications

import (
	"net/http"

	"github.com/princekumarofficial/challenge-tracker/internal/events"
	"github.com/princekumarofficial/challenge-tracker/internal/http/handlers"
	"github.com/princekumarofficial/challenge-tracker/internal/storage"
	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/response"
)

// List returns the notifications matching ?filter= (all, unread or a type)
// and the total unread count
func List(store storage.Notifications) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := notifications.Filter(r.URL.Query().Get("filter"))
		list, err := store.ListNotifications(handlers.UserID(r), filter)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, list)
	}
}

func MarkRead(store storage.Notifications, pub events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id := handlers.UserID(r), r.PathValue("id")
		unread, err := store.MarkNotificationRead(userID, id)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		pub.PublishNotificationRead(userID, id, unread)
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Notification marked as read", nil))
	}
}

func MarkAllRead(store storage.Notifications, pub events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := handlers.UserID(r)
		if err := store.MarkAllNotificationsRead(userID); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		pub.PublishUnreadCount(userID, 0)
		response.WriteJSON(w, http.StatusOK, response.RequestOK("All notifications marked as read", nil))
	}
}

func Delete(store storage.Notifications, pub events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, id := handlers.UserID(r), r.PathValue("id")
		unread, err := store.DeleteNotification(userID, id)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		pub.PublishNotificationDeleted(userID, id, unread)
		w.WriteHeader(http.StatusNoContent)
	}
}

func Clear(store storage.Notifications, pub events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := handlers.UserID(r)
		if err := store.ClearNotifications(userID); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		pub.PublishUnreadCount(userID, 0)
		w.WriteHeader(http.StatusNoContent)
	}
}

func Settings(store storage.Notifications) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.NotificationSettings(handlers.UserID(r))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, s)
	}
}

func UpdateSettings(store storage.Notifications) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s notifications.Settings
		if !response.DecodeAndValidate(w, r, &s) {
			return
		}
		if err := store.UpdateNotificationSettings(handlers.UserID(r), s); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, s)
	}
}
