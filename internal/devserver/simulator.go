package devserver

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/princekumarofficial/challenge-tracker/internal/events"
	"github.com/princekumarofficial/challenge-tracker/internal/storage"
)

// SimulatedStore is the part of storage the simulator changes
type SimulatedStore interface {
	ChallengeIDs() []string
	BumpParticipants(challengeID string, delta int) (int, error)
	AwardPoints(userID string, points int) (storage.Award, error)
}

// Presence lists connected users
type Presence interface {
	GetConnectedUsers() []string
}

// Simulator produces background activity so connected clients see live
// updates without a second user: participant counts drift and connected
// users receive small point awards.
type Simulator struct {
	store     SimulatedStore
	publisher events.Publisher
	presence  Presence
	interval  time.Duration
	logger    *slog.Logger
	rand      *rand.Rand
}

func NewSimulator(store SimulatedStore, pub events.Publisher, presence Presence, interval time.Duration, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		store:     store,
		publisher: pub,
		presence:  presence,
		interval:  interval,
		logger:    logger,
		rand:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// Start ticks until ctx ends
func (s *Simulator) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Activity simulator started", slog.String("interval", s.interval.String()))

	// Run once immediately on startup
	s.Tick()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Activity simulator shutting down")
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick applies one round of simulated activity
func (s *Simulator) Tick() {
	startTime := time.Now()

	if ids := s.store.ChallengeIDs(); len(ids) > 0 {
		id := ids[s.rand.IntN(len(ids))]
		count, err := s.store.BumpParticipants(id, 1+s.rand.IntN(3))
		if err != nil {
			s.logger.Error("Failed to bump participants", slog.String("challenge_id", id), slog.String("error", err.Error()))
		} else {
			s.publisher.PublishParticipantCount(id, count)
		}
	}

	awarded := 0
	if online := s.presence.GetConnectedUsers(); len(online) > 0 {
		userID := online[s.rand.IntN(len(online))]
		award, err := s.store.AwardPoints(userID, 5*(1+s.rand.IntN(10)))
		if err != nil {
			s.logger.Error("Failed to award points", slog.String("user_id", userID), slog.String("error", err.Error()))
		} else {
			s.publisher.PublishAward(userID, award)
			awarded = award.Points
		}
	}

	s.logger.Debug("Simulated activity",
		slog.Int("points_awarded", awarded),
		slog.Int64("duration_ms", time.Since(startTime).Milliseconds()))
}
