package social

import (
	"net/http"

	"github.com/princekumarofficial/challenge-tracker/internal/events"
	"github.com/princekumarofficial/challenge-tracker/internal/http/handlers"
	"github.com/princekumarofficial/challenge-tracker/internal/storage"
	"github.com/princekumarofficial/challenge-tracker/internal/types/social"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/response"
)

// Presence reports which users currently hold a realtime connection
type Presence interface {
	IsUserConnected(userID string) bool
}

// Friends lists the caller's friends. A friend shows as online only while
// connected and sharing their online status.
func Friends(store storage.Social, presence Presence) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		friends, err := store.Friends(handlers.UserID(r))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		for i := range friends {
			privacy, err := store.PrivacySettings(friends[i].ID)
			friends[i].IsOnline = err == nil && privacy.ShowOnlineStatus && presence.IsUserConnected(friends[i].ID)
		}
		response.WriteJSON(w, http.StatusOK, social.FriendList{Friends: friends})
	}
}

func Requests(store storage.Social) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := store.FriendRequests(handlers.UserID(r))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, social.RequestList{Requests: requests})
	}
}

func Search(store storage.Social) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, err := store.SearchUsers(handlers.UserID(r), r.URL.Query().Get("query"))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, social.SearchResult{Users: found})
	}
}

func SendRequest(store storage.Social, notifier *events.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ref social.UserRef
		if !response.DecodeAndValidate(w, r, &ref) {
			return
		}

		req, err := store.SendFriendRequest(handlers.UserID(r), ref.UserID)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		notifier.Notify(ref.UserID, events.NotificationFriendRequest, "New friend request",
			req.FromName+" sent you a friend request")
		response.WriteJSON(w, http.StatusCreated, req)
	}
}

func AcceptRequest(store storage.Social, users storage.Users, notifier *events.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ref social.RequestRef
		if !response.DecodeAndValidate(w, r, &ref) {
			return
		}
		userID := handlers.UserID(r)

		req, err := store.AcceptFriendRequest(userID, ref.RequestID)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}

		name := "Someone"
		if u, err := users.GetUser(userID); err == nil {
			name = u.DisplayName()
		}
		notifier.Notify(req.FromID, events.NotificationFriendAccept, "Friend request accepted",
			name+" accepted your friend request")
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Friend request accepted", nil))
	}
}

func RejectRequest(store storage.Social) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ref social.RequestRef
		if !response.DecodeAndValidate(w, r, &ref) {
			return
		}
		if err := store.RejectFriendRequest(handlers.UserID(r), ref.RequestID); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Friend request rejected", nil))
	}
}

func Unfriend(store storage.Social) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ref social.UserRef
		if !response.DecodeAndValidate(w, r, &ref) {
			return
		}
		if err := store.Unfriend(handlers.UserID(r), ref.UserID); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Friend removed", nil))
	}
}

func Block(store storage.Social) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ref social.UserRef
		if !response.DecodeAndValidate(w, r, &ref) {
			return
		}
		if err := store.Block(handlers.UserID(r), ref.UserID); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("User blocked", nil))
	}
}

func Privacy(store storage.Social) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.PrivacySettings(handlers.UserID(r))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, s)
	}
}

func UpdatePrivacy(store storage.Social) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s social.PrivacySettings
		if !response.DecodeAndValidate(w, r, &s) {
			return
		}
		if s.ProfileVisibility == "" {
			s.ProfileVisibility = "public"
		}
		if err := store.UpdatePrivacySettings(handlers.UserID(r), s); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, s)
	}
}
