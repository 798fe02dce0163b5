package devserver

import (
	"net/http"

	"github.com/princekumarofficial/challenge-tracker/internal/cache"
	"github.com/princekumarofficial/challenge-tracker/internal/http/handlers/account"
	"github.com/princekumarofficial/challenge-tracker/internal/http/handlers/challenges"
	"github.com/princekumarofficial/challenge-tracker/internal/http/handlers/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/http/handlers/social"
	"github.com/princekumarofficial/challenge-tracker/internal/http/handlers/users"
	wsHandler "github.com/princekumarofficial/challenge-tracker/internal/http/handlers/websocket"
	"github.com/princekumarofficial/challenge-tracker/internal/http/middleware"
	"github.com/princekumarofficial/challenge-tracker/internal/storage"
)

// challengeCreateLimit is the per-minute cap on new challenges per user
const challengeCreateLimit = 20

func (s *Server) routes() http.Handler {
	store := s.store
	secret := s.cfg.JWTSecret
	pub := s.publisher

	auth := middleware.AuthMiddleware(secret, store)
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	limits := middleware.NewRateLimitConfig(s.redis, map[string]int64{
		middleware.ActionLikes:      s.cfg.LikeRateLimit,
		middleware.ActionChallenges: challengeCreateLimit,
	})
	limited := func(action string, h http.HandlerFunc) http.Handler {
		return auth(limits.RateLimitedHandler(action, h))
	}

	var challengeStore storage.Challenges = store
	if s.redis != nil {
		challengeStore = cache.NewCacheService(store, s.redis, s.logger)
	}

	router := http.NewServeMux()

	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /ws", wsHandler.WebSocketHandler(s.hub, secret, store))

	// Auth and profile
	router.HandleFunc("POST /api/auth/register", users.Register(store, secret))
	router.HandleFunc("POST /api/auth/login", users.Login(store, secret))
	router.Handle("GET /api/users/profile", protected(users.Profile(store)))
	router.Handle("PATCH /api/users/profile", protected(users.UpdateProfile(store)))

	// Challenges
	router.Handle("GET /api/challenges", protected(challenges.List(challengeStore)))
	router.Handle("POST /api/challenges", limited(middleware.ActionChallenges, challenges.Create(challengeStore)))
	router.Handle("GET /api/challenges/{id}", protected(challenges.Get(challengeStore)))
	router.Handle("PATCH /api/challenges/{id}", protected(challenges.Update(challengeStore, pub)))
	router.Handle("DELETE /api/challenges/{id}", protected(challenges.Delete(challengeStore)))
	router.Handle("POST /api/challenges/{id}/join", protected(challenges.Join(challengeStore, store, pub)))
	router.Handle("POST /api/challenges/{id}/like", limited(middleware.ActionLikes, challenges.Like(challengeStore, pub)))
	router.Handle("DELETE /api/challenges/{id}/like", limited(middleware.ActionLikes, challenges.Unlike(challengeStore, pub)))
	router.Handle("POST /api/challenges/{id}/progress", protected(challenges.Progress(challengeStore, pub, s.notifier)))
	router.Handle("POST /api/challenges/{id}/comments", protected(challenges.Comment(challengeStore)))

	// Notifications
	router.Handle("GET /api/notifications", protected(notifications.List(store)))
	router.Handle("PUT /api/notifications/mark-all-read", protected(notifications.MarkAllRead(store, pub)))
	router.Handle("DELETE /api/notifications/clear-all", protected(notifications.Clear(store, pub)))
	router.Handle("GET /api/notifications/settings", protected(notifications.Settings(store)))
	router.Handle("PUT /api/notifications/settings", protected(notifications.UpdateSettings(store)))
	router.Handle("PUT /api/notifications/{id}/read", protected(notifications.MarkRead(store, pub)))
	router.Handle("DELETE /api/notifications/{id}", protected(notifications.Delete(store, pub)))

	// Social
	router.Handle("GET /api/social/friends", protected(social.Friends(store, s.hub)))
	router.Handle("GET /api/social/friend-requests", protected(social.Requests(store)))
	router.Handle("GET /api/social/search", protected(social.Search(store)))
	router.Handle("POST /api/social/send-friend-request", protected(social.SendRequest(store, s.notifier)))
	router.Handle("POST /api/social/accept-friend-request", protected(social.AcceptRequest(store, store, s.notifier)))
	router.Handle("POST /api/social/reject-friend-request", protected(social.RejectRequest(store)))
	router.Handle("POST /api/social/unfriend", protected(social.Unfriend(store)))
	router.Handle("POST /api/social/block", protected(social.Block(store)))
	router.Handle("GET /api/social/privacy-settings", protected(social.Privacy(store)))
	router.Handle("PUT /api/social/privacy-settings", protected(social.UpdatePrivacy(store)))

	// Economy and leaderboards
	router.Handle("GET /api/currency/wallet", protected(account.Wallet(store)))
	router.Handle("GET /api/currency/transactions", protected(account.Transactions(store)))
	router.Handle("POST /api/currency/daily-bonus", protected(account.DailyBonus(store)))
	router.Handle("GET /api/leaderboard/{kind}", protected(account.Leaderboard(store)))
	router.Handle("GET /api/leaderboard/{kind}/rank/{userId}", protected(account.Rank(store)))

	// Security
	router.Handle("GET /api/security/score", protected(account.SecurityScore(store)))
	router.Handle("GET /api/security/sessions", protected(account.Sessions(store)))
	router.Handle("DELETE /api/security/sessions/{id}", protected(account.RevokeSession(store)))
	router.Handle("POST /api/security/sessions/revoke-all", protected(account.RevokeAllSessions(store)))
	router.Handle("GET /api/security/login-history", protected(account.LoginHistory(store)))
	router.Handle("POST /api/security/change-password", protected(account.ChangePassword(store)))
	router.Handle("POST /api/security/toggle-2fa", protected(account.Toggle2FA(store)))

	// Payments and analytics
	router.Handle("GET /api/payments/history", protected(account.PaymentHistory(store)))
	router.Handle("POST /api/payments/cancel-subscription", protected(account.CancelSubscription(store)))
	router.Handle("GET /api/analytics/dashboard", protected(account.Analytics(store)))

	// Cache administration
	if s.redis != nil {
		router.Handle("GET /api/dev/cache", protected(cache.GetCacheStats(s.redis)))
		router.Handle("DELETE /api/dev/cache", protected(cache.ClearCache(s.redis)))
	}

	return router
}
