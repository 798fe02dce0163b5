package websocket

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/challenge-tracker/internal/http/middleware"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/jwt"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/response"
	wsClient "github.com/princekumarofficial/challenge-tracker/internal/websocket"
)

// WebSocketHandler upgrades connections authenticated by the token query
// parameter and hands them to the hub
func WebSocketHandler(hub *wsClient.Hub, jwtSecret string, sessions middleware.SessionChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Get JWT token from query parameter
		token := r.URL.Query().Get("token")
		if token == "" {
			slog.Warn("WebSocket connection attempted without token")
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("token required")))
			return
		}

		claims, err := jwt.ParseToken(token, jwtSecret)
		if err == nil && sessions != nil && !sessions.SessionActive(claims.UserID, claims.SessionID) {
			err = errors.New("session revoked")
		}
		if err != nil {
			slog.Warn("WebSocket connection attempted with invalid token", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid token")))
			return
		}

		// Upgrade connection to WebSocket
		conn, err := wsClient.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		// Create new client and register with hub
		client := wsClient.NewClient(conn, claims.UserID, hub)
		hub.RegisterClient(client)

		// Start client goroutines
		client.Start()

		slog.Info("WebSocket connection established", slog.String("user_id", claims.UserID))
	}
}
