package challenges

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/challenge-tracker/internal/events"
	"github.com/princekumarofficial/challenge-tracker/internal/http/handlers"
	"github.com/princekumarofficial/challenge-tracker/internal/storage"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/response"
)

func List(store storage.Challenges) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListChallenges(handlers.UserID(r))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, types.ChallengeList{Challenges: list})
	}
}

func Get(store storage.Challenges) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := store.GetChallenge(r.PathValue("id"), handlers.UserID(r))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, ch)
	}
}

func Create(store storage.Challenges) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateChallengeRequest
		if !response.DecodeAndValidate(w, r, &req) {
			return
		}

		ch, err := store.CreateChallenge(handlers.UserID(r), req)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		slog.Info("Challenge created", slog.String("challenge_id", ch.ID), slog.String("creator", req.Creator))
		response.WriteJSON(w, http.StatusCreated, ch)
	}
}

// Update applies a partial edit and broadcasts the changed fields
func Update(store storage.Challenges, pub events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch types.ChallengePatch
		if !response.DecodeAndValidate(w, r, &patch) {
			return
		}
		patch.ID = r.PathValue("id")

		ch, err := store.UpdateChallenge(patch.ID, handlers.UserID(r), patch)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}

		pub.PublishChallengeUpdate(types.ChallengePatch{
			ID:            ch.ID,
			Title:         &ch.Title,
			Description:   &ch.Description,
			Category:      &ch.Category,
			Difficulty:    &ch.Difficulty,
			PointsReward:  &ch.PointsReward,
			DaysRemaining: &ch.DaysRemaining,
		})
		response.WriteJSON(w, http.StatusOK, ch)
	}
}

func Delete(store storage.Challenges) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteChallenge(r.PathValue("id"), handlers.UserID(r)); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Join adds the caller and tells the challenge room
func Join(store storage.Challenges, users storage.Users, pub events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, userID := r.PathValue("id"), handlers.UserID(r)

		count, err := store.JoinChallenge(id, userID)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}

		name := ""
		if u, err := users.GetUser(userID); err == nil {
			name = u.DisplayName()
		}
		pub.PublishParticipantJoined(id, userID, name, count)
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Joined challenge", nil))
	}
}

func writeLike(w http.ResponseWriter, r *http.Request, pub events.Publisher, id string, res types.LikeResult, err error) {
	if err != nil {
		handlers.WriteError(w, r, err)
		return
	}
	pub.PublishChallengeUpdate(types.ChallengePatch{ID: id, LikeCount: &res.Likes})
	response.WriteJSON(w, http.StatusOK, res)
}

// Like toggles the caller's like; a repeated call unlikes
func Like(store storage.Challenges, pub events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		res, err := store.ToggleLike(id, handlers.UserID(r))
		writeLike(w, r, pub, id, res, err)
	}
}

func Unlike(store storage.Challenges, pub events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		res, err := store.Unlike(id, handlers.UserID(r))
		writeLike(w, r, pub, id, res, err)
	}
}

// Progress records an entry, credits points and pushes the new stats
func Progress(store storage.Challenges, pub events.Publisher, notifier *events.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ProgressRequest
		if !response.DecodeAndValidate(w, r, &req) {
			return
		}
		userID := handlers.UserID(r)

		res, err := store.RecordProgress(r.PathValue("id"), userID, req)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}

		pub.PublishAward(userID, res.Award)
		if a := res.Achievement; a != nil {
			notifier.Notify(userID, events.NotificationAchievement, "Achievement unlocked", a.Title)
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK(
			fmt.Sprintf("Progress recorded, +%d points", res.Points),
			map[string]float64{"progress": res.Progress}))
	}
}

func Comment(store storage.Challenges) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CommentRequest
		if !response.DecodeAndValidate(w, r, &req) {
			return
		}
		if err := store.AddComment(r.PathValue("id"), handlers.UserID(r), req.Text); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Comment added", nil))
	}
}
