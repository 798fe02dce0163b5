package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/challenge-tracker/internal/ratelimit"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/response"
)

// Rate limited actions
const (
	ActionLikes      = "likes"
	ActionChallenges = "challenges"
)

type RateLimitConfig struct {
	limiters map[string]*ratelimit.TokenBucket
}

// NewRateLimitConfig creates a token bucket per action, sized to the given
// per-minute limits. A nil client disables rate limiting.
func NewRateLimitConfig(redisClient *redis.Client, perMinute map[string]int64) *RateLimitConfig {
	config := &RateLimitConfig{limiters: make(map[string]*ratelimit.TokenBucket)}
	if redisClient == nil {
		return config
	}

	for action, limit := range perMinute {
		if limit > 0 {
			config.limiters[action] = ratelimit.NewTokenBucket(redisClient, limit, limit)
		}
	}
	return config
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter, exists := rlc.limiters[action]
			if !exists {
				// If no rate limiter configured for this action, allow the request
				next.ServeHTTP(w, r)
				return
			}

			// Get user ID from context (assumes auth middleware ran first)
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("user not authenticated")))
				return
			}

			allowed, err := limiter.Allow(r.Context(), userID, action)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					fmt.Errorf("rate limit check failed: %w", err)))
				return
			}

			remaining, _ := limiter.GetRemaining(r.Context(), userID, action)
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Capacity(), 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(limiter.Window().Seconds())))

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action)(handler)
}
