package users

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/princekumarofficial/challenge-tracker/internal/http/handlers"
	"github.com/princekumarofficial/challenge-tracker/internal/storage"
	"github.com/princekumarofficial/challenge-tracker/internal/types/account"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/jwt"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/password"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/response"
)

// AuthStore is the storage the sign-up and login handlers need
type AuthStore interface {
	storage.Users
	storage.Sessions
}

var errBadCredentials = errors.New("invalid email or password")

// issue opens a login session for the user and writes the token and user
func issue(w http.ResponseWriter, r *http.Request, store AuthStore, jwtSecret string, user users.User, status int) {
	sessionID := uuid.NewString()
	token, err := jwt.CreateToken(user.ID, sessionID, jwtSecret)
	if err != nil {
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate token")))
		return
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	device := r.UserAgent()
	if device == "" {
		device = "unknown"
	}
	if err := store.RecordLogin(user.ID, account.LoginSession{ID: sessionID, Device: device, IP: ip}); err != nil {
		handlers.WriteError(w, r, err)
		return
	}

	response.WriteJSON(w, status, users.AuthResponse{Token: token, User: user})
}

// Register creates an account and signs it in
func Register(store AuthStore, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.RegisterRequest
		if !response.DecodeAndValidate(w, r, &req) {
			return
		}

		hashedPassword, err := password.HashPassword(req.Password)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to hash password")))
			return
		}

		user, err := store.CreateUser(req, hashedPassword)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		slog.Info("User created", slog.String("user_id", user.ID))

		issue(w, r, store, jwtSecret, user, http.StatusCreated)
	}
}

// Login authenticates a user and returns a token
func Login(store AuthStore, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.LoginRequest
		if !response.DecodeAndValidate(w, r, &req) {
			return
		}

		rec, err := store.GetUserByEmail(req.Email)
		if err != nil {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errBadCredentials))
			return
		}
		if !password.CheckPasswordHash(req.Password, rec.PasswordHash) {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errBadCredentials))
			return
		}

		issue(w, r, store, jwtSecret, rec.User, http.StatusOK)
	}
}

// Profile returns the caller's profile with progression counters
func Profile(store storage.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := store.GetProfile(handlers.UserID(r))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, profile)
	}
}

// UpdateProfile changes only the fields present in the body
func UpdateProfile(store storage.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update users.ProfileUpdate
		if !response.DecodeAndValidate(w, r, &update) {
			return
		}

		profile, err := store.UpdateProfile(handlers.UserID(r), update)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, profile)
	}
}
