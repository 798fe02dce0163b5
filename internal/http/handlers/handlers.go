// Package handlers holds what the REST handlers of the development backend
// share: the caller's identity and the mapping of storage errors to statuses.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/princekumarofficial/challenge-tracker/internal/http/middleware"
	"github.com/princekumarofficial/challenge-tracker/internal/storage"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/response"
)

// UserID returns the authenticated caller
func UserID(r *http.Request) string {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	return userID
}

// WriteError maps a storage error to its HTTP status and writes it
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrUserExists), errors.Is(err, storage.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrForbidden):
		status = http.StatusForbidden
	default:
		slog.Error("Request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	response.WriteJSON(w, status, response.GeneralError(err))
}

// QueryInt reads a positive integer query parameter, falling back to def
func QueryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
