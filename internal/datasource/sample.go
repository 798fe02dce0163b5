package datasource

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

//go:embed fixtures/challenges.yaml
var challengeFixtures []byte

type fixture struct {
	ID            string  `yaml:"id"`
	Title         string  `yaml:"title"`
	Description   string  `yaml:"description"`
	Category      string  `yaml:"category"`
	Difficulty    string  `yaml:"difficulty"`
	Progress      float64 `yaml:"progress"`
	Participants  int     `yaml:"participants"`
	Likes         int     `yaml:"likes"`
	Points        int     `yaml:"points"`
	DaysRemaining int     `yaml:"days_remaining"`
}

type fixtureFile struct {
	Challenges []fixture `yaml:"challenges"`
}

// Dispatcher delivers an event to local realtime handlers
type Dispatcher interface {
	Dispatch(ev *types.Event)
}

// Sample serves built-in demo challenges from memory. Likes are kept per
// process.
type Sample struct {
	logger *slog.Logger

	mu         sync.RWMutex
	challenges []types.ChallengeSummary
}

func NewSample(logger *slog.Logger) (*Sample, error) {
	return parseSample(challengeFixtures, logger)
}

func parseSample(raw []byte, logger *slog.Logger) (*Sample, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var file fixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sample challenges: %w", err)
	}

	s := &Sample{logger: logger}
	for _, f := range file.Challenges {
		s.challenges = append(s.challenges, types.ChallengeSummary{
			ID:               f.ID,
			Title:            f.Title,
			Description:      f.Description,
			Category:         f.Category,
			Difficulty:       f.Difficulty,
			ProgressPercent:  f.Progress,
			ParticipantCount: f.Participants,
			LikeCount:        f.Likes,
			PointsReward:     f.Points,
			DaysRemaining:    f.DaysRemaining,
		})
	}
	logger.Debug("Sample challenges loaded", slog.Int("count", len(s.challenges)))
	return s, nil
}

func (s *Sample) List(ctx context.Context) ([]types.ChallengeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ChallengeSummary(nil), s.challenges...), nil
}

func (s *Sample) Get(ctx context.Context, id string) (types.ChallengeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.challenges {
		if c.ID == id {
			return c, nil
		}
	}
	return types.ChallengeSummary{}, ErrNotFound
}

func (s *Sample) Like(ctx context.Context, id string) (types.LikeResult, error) {
	return s.setLiked(id, true)
}

func (s *Sample) Unlike(ctx context.Context, id string) (types.LikeResult, error) {
	return s.setLiked(id, false)
}

func (s *Sample) setLiked(id string, liked bool) (types.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.challenges {
		c := &s.challenges[i]
		if c.ID != id {
			continue
		}
		if c.IsLiked != liked {
			c.IsLiked = liked
			if liked {
				c.LikeCount++
			} else if c.LikeCount > 0 {
				c.LikeCount--
			}
		}
		return types.LikeResult{Liked: c.IsLiked, Likes: c.LikeCount}, nil
	}
	return types.LikeResult{}, ErrNotFound
}

// Simulate pushes a participant_count_update for a random sample challenge
// every interval until ctx is done, so live screens move without a server
func (s *Sample) Simulate(ctx context.Context, d Dispatcher, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ev := s.tick(); ev != nil {
				d.Dispatch(ev)
			}
		}
	}
}

func (s *Sample) tick() *types.Event {
	s.mu.Lock()
	if len(s.challenges) == 0 {
		s.mu.Unlock()
		return nil
	}
	c := &s.challenges[rand.IntN(len(s.challenges))]
	c.ParticipantCount++
	count := c.ParticipantCount
	id := c.ID
	s.mu.Unlock()

	ev, err := types.NewEvent(types.EventParticipantCountUpdate, types.ParticipantCountUpdate{ChallengeID: id, Count: &count})
	if err != nil {
		s.logger.Error("Failed to build simulated event", slog.String("error", err.Error()))
		return nil
	}
	return ev
}
