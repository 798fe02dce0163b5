// Package account serves the economy, leaderboard, security, payment and
// analytics endpoints.
package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/princekumarofficial/challenge-tracker/internal/http/handlers"
	"github.com/princekumarofficial/challenge-tracker/internal/http/middleware"
	"github.com/princekumarofficial/challenge-tracker/internal/storage"
	"github.com/princekumarofficial/challenge-tracker/internal/types/account"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/password"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/response"
)

var leaderboards = map[string]bool{"global": true, "weekly": true, "monthly": true, "friends": true}

// Economy

func Wallet(store storage.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet, err := store.Wallet(handlers.UserID(r))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, wallet)
	}
}

func Transactions(store storage.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.Transactions(handlers.UserID(r), handlers.QueryInt(r, "limit", 20))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, account.TransactionList{Transactions: list})
	}
}

func DailyBonus(store storage.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bonus, err := store.ClaimDailyBonus(handlers.UserID(r), time.Now())
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, bonus)
	}
}

// Leaderboard

func Leaderboard(store storage.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !leaderboards[r.PathValue("kind")] {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("unknown leaderboard")))
			return
		}
		entries, err := store.Leaderboard(r.URL.Query().Get("category"), handlers.QueryInt(r, "limit", 50))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, account.Leaderboard{Entries: entries})
	}
}

func Rank(store storage.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !leaderboards[r.PathValue("kind")] {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("unknown leaderboard")))
			return
		}
		rank, err := store.Rank(r.PathValue("userId"))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, rank)
	}
}

// Security

func SecurityScore(store storage.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		score, err := store.SecurityScore(handlers.UserID(r))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, score)
	}
}

func Sessions(store storage.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.Sessions(handlers.UserID(r), middleware.GetSessionIDFromContext(r.Context()))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, account.SessionList{Sessions: list})
	}
}

func RevokeSession(store storage.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.RevokeSession(handlers.UserID(r), r.PathValue("id")); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RevokeAllSessions signs out every session except the calling one
func RevokeAllSessions(store storage.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.RevokeOtherSessions(handlers.UserID(r), middleware.GetSessionIDFromContext(r.Context()))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Other sessions revoked", nil))
	}
}

func LoginHistory(store storage.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := store.LoginHistory(handlers.UserID(r), handlers.QueryInt(r, "limit", 20))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, account.LoginHistory{Entries: history})
	}
}

func ChangePassword(store storage.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req account.ChangePasswordRequest
		if !response.DecodeAndValidate(w, r, &req) {
			return
		}
		userID := handlers.UserID(r)

		user, err := store.GetUser(userID)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		rec, err := store.GetUserByEmail(user.Email)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		if !password.CheckPasswordHash(req.CurrentPassword, rec.PasswordHash) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("current password is incorrect")))
			return
		}

		hash, err := password.HashPassword(req.NewPassword)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to hash password")))
			return
		}
		if err := store.SetPasswordHash(userID, hash); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Password changed", nil))
	}
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

func Toggle2FA(store storage.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req toggleRequest
		if !response.DecodeAndValidate(w, r, &req) {
			return
		}
		if err := store.SetTwoFactor(handlers.UserID(r), req.Enabled); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, req)
	}
}

// Payments

func PaymentHistory(store storage.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := store.PaymentHistory(handlers.UserID(r), handlers.QueryInt(r, "page", 1), handlers.QueryInt(r, "limit", 10))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, h)
	}
}

func CancelSubscription(store storage.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.CancelSubscription(handlers.UserID(r)); err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Subscription cancelled", nil))
	}
}

// Analytics

func Analytics(store storage.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timeRange := r.URL.Query().Get("timeRange")
		if timeRange == "" {
			timeRange = "30d"
		}
		d, err := store.Analytics(handlers.UserID(r), timeRange)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, d)
	}
}
