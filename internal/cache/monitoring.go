package cache

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/response"
)

// CacheStats represents cache statistics
type CacheStats struct {
	RedisConnected bool     `json:"redis_connected"`
	Generation     int64    `json:"generation"`
	CacheKeys      []string `json:"cache_keys_sample"`
	KeyCount       int      `json:"total_keys"`
}

// GetCacheStats reports the challenge cache generation and a sample of keys
func GetCacheStats(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := CacheStats{RedisConnected: true}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			stats.RedisConnected = false
			response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
			return
		}

		gen, err := redisClient.Get(ctx, GenerationKey).Int64()
		if err == nil {
			stats.Generation = gen
		}

		keys, err := redisClient.Keys(ctx, ChallengeKeyScope).Result()
		if err == nil {
			stats.KeyCount = len(keys)
			stats.CacheKeys = keys[:min(len(keys), 10)]
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
	}
}

// ClearCache deletes cached challenges, rate limit buckets, or both
func ClearCache(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var patterns []string
		switch r.URL.Query().Get("type") {
		case "ratelimit":
			patterns = []string{"rate_limit:*"}
		case "all":
			patterns = []string{ChallengeKeyScope, "rate_limit:*"}
		default:
			patterns = []string{ChallengeKeyScope}
		}

		var keys []string
		for _, pattern := range patterns {
			found, err := redisClient.Keys(ctx, pattern).Result()
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			keys = append(keys, found...)
		}

		if len(keys) == 0 {
			response.WriteJSON(w, http.StatusOK, response.RequestOK("No cache keys to clear",
				map[string]interface{}{"patterns": patterns, "deleted_keys": 0}))
			return
		}

		deleted, err := redisClient.Del(ctx, keys...).Result()
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache cleared successfully",
			map[string]interface{}{
				"patterns":     patterns,
				"deleted_keys": deleted,
				"keys_sample":  keys[:min(len(keys), 5)],
			}))
	}
}
