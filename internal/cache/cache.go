package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/challenge-tracker/internal/storage"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

// CacheService wraps challenge storage with Redis read caching. Every write
// bumps a generation number that is part of each key, so stale entries are
// never read again and simply expire.
type CacheService struct {
	storage.Challenges
	redis  *redis.Client
	logger *slog.Logger
}

var _ storage.Challenges = (*CacheService)(nil)

// NewCacheService creates a new cache service
func NewCacheService(challenges storage.Challenges, redisClient *redis.Client, logger *slog.Logger) *CacheService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheService{
		Challenges: challenges,
		redis:      redisClient,
		logger:     logger,
	}
}

// Cache key patterns
const (
	GenerationKey     = "challenges:generation"
	ChallengeListKey  = "challenges:list:%d:user:%s" // generation, userID
	ChallengeKey      = "challenge:%d:%s:user:%s"    // generation, challengeID, userID
	ChallengeKeyScope = "challenge*"
)

// ListCacheDuration bounds how long an entry of an old generation lingers
const ListCacheDuration = 45 * time.Second

func (c *CacheService) generation(ctx context.Context) (int64, error) {
	gen, err := c.redis.Get(ctx, GenerationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// cached returns the value under key, or calls load and stores its result.
// Redis failures fall back to load.
func cached[T any](ctx context.Context, c *CacheService, key string, load func() (T, error)) (T, error) {
	if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err == nil {
		err = c.redis.Set(ctx, key, data, ListCacheDuration).Err()
	}
	if err != nil {
		c.logger.Warn("Failed to cache challenges", slog.String("key", key), slog.String("error", err.Error()))
	}
	return v, nil
}

// ListChallenges returns the cached list or fetches from storage
func (c *CacheService) ListChallenges(userID string) ([]types.ChallengeSummary, error) {
	ctx := context.Background()
	gen, err := c.generation(ctx)
	if err != nil {
		return c.Challenges.ListChallenges(userID)
	}
	return cached(ctx, c, fmt.Sprintf(ChallengeListKey, gen, userID), func() ([]types.ChallengeSummary, error) {
		return c.Challenges.ListChallenges(userID)
	})
}

func (c *CacheService) GetChallenge(challengeID, userID string) (types.ChallengeSummary, error) {
	ctx := context.Background()
	gen, err := c.generation(ctx)
	if err != nil {
		return c.Challenges.GetChallenge(challengeID, userID)
	}
	return cached(ctx, c, fmt.Sprintf(ChallengeKey, gen, challengeID, userID), func() (types.ChallengeSummary, error) {
		return c.Challenges.GetChallenge(challengeID, userID)
	})
}

// Invalidate starts a new cache generation
func (c *CacheService) Invalidate(ctx context.Context) {
	if err := c.redis.Incr(ctx, GenerationKey).Err(); err != nil {
		c.logger.Warn("Failed to invalidate challenge cache", slog.String("error", err.Error()))
	}
}

func (c *CacheService) invalidateOn(err error) {
	if err == nil {
		c.Invalidate(context.Background())
	}
}

func (c *CacheService) CreateChallenge(creatorID string, req types.CreateChallengeRequest) (types.ChallengeSummary, error) {
	ch, err := c.Challenges.CreateChallenge(creatorID, req)
	c.invalidateOn(err)
	return ch, err
}

func (c *CacheService) UpdateChallenge(challengeID, userID string, patch types.ChallengePatch) (types.ChallengeSummary, error) {
	ch, err := c.Challenges.UpdateChallenge(challengeID, userID, patch)
	c.invalidateOn(err)
	return ch, err
}

func (c *CacheService) DeleteChallenge(challengeID, userID string) error {
	err := c.Challenges.DeleteChallenge(challengeID, userID)
	c.invalidateOn(err)
	return err
}

func (c *CacheService) JoinChallenge(challengeID, userID string) (int, error) {
	n, err := c.Challenges.JoinChallenge(challengeID, userID)
	c.invalidateOn(err)
	return n, err
}

func (c *CacheService) ToggleLike(challengeID, userID string) (types.LikeResult, error) {
	res, err := c.Challenges.ToggleLike(challengeID, userID)
	c.invalidateOn(err)
	return res, err
}

func (c *CacheService) Unlike(challengeID, userID string) (types.LikeResult, error) {
	res, err := c.Challenges.Unlike(challengeID, userID)
	c.invalidateOn(err)
	return res, err
}

func (c *CacheService) RecordProgress(challengeID, userID string, req types.ProgressRequest) (storage.ProgressResult, error) {
	res, err := c.Challenges.RecordProgress(challengeID, userID, req)
	c.invalidateOn(err)
	return res, err
}

func (c *CacheService) BumpParticipants(challengeID string, delta int) (int, error) {
	n, err := c.Challenges.BumpParticipants(challengeID, delta)
	c.invalidateOn(err)
	return n, err
}
