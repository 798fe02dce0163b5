package viewstate

import (
	"context"
	"log/slog"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
	"github.com/princekumarofficial/challenge-tracker/internal/viewstate/merge"
)

const recentAchievements = 5

type ProfileSource interface {
	Profile(ctx context.Context) (users.Profile, error)
}

type DashboardState struct {
	Profile      types.ProfileSnapshot
	Achievements []types.Achievement
}

// Dashboard shows the user's progression counters
type Dashboard struct {
	*View[DashboardState]
}

func NewDashboard(src ProfileSource, ch Channel, sink alerts.Sink, logger *slog.Logger) *Dashboard {
	d := &Dashboard{}
	d.View = New(Options[DashboardState]{
		Name:    "dashboard",
		Channel: ch,
		Sink:    sink,
		Logger:  logger,
		Fetch: func(ctx context.Context) (DashboardState, error) {
			p, err := src.Profile(ctx)
			if err != nil {
				return DashboardState{}, err
			}
			return DashboardState{Profile: types.ProfileSnapshotFrom(p)}, nil
		},
		Bindings: []Binding[DashboardState]{
			{Event: types.EventStatsUpdate, Apply: applyStats},
			{Event: types.EventPointsUpdate, Apply: counter("points", func(s *DashboardState) *int { return &s.Profile.Experience })},
			{Event: types.EventLevelUpdate, Apply: counter("level", func(s *DashboardState) *int { return &s.Profile.Level })},
			{Event: types.EventStreakUpdate, Apply: counter("streak", func(s *DashboardState) *int { return &s.Profile.Streak })},
			{Event: types.EventUnreadCountUpdate, Apply: counter("count", func(s *DashboardState) *int { return &s.Profile.UnreadNotificationCount })},
			{Event: types.EventAchievementUnlocked, Apply: applyAchievement, Then: d.announce},
		},
	})
	return d
}

func applyStats(s *DashboardState, ev *types.Event) error {
	var u types.StatsUpdate
	if err := ev.Decode(&u); err != nil {
		return err
	}
	merge.Value(&s.Profile.Experience, u.TotalPoints)
	merge.Value(&s.Profile.Level, u.EffectiveLevel())
	merge.Value(&s.Profile.Streak, u.Streak)
	return nil
}

func counter[S any](key string, field func(*S) *int) func(*S, *types.Event) error {
	return func(s *S, ev *types.Event) error {
		n, err := decodeCount(ev, key)
		if err != nil {
			return err
		}
		merge.Value(field(s), n)
		return nil
	}
}

func applyAchievement(s *DashboardState, ev *types.Event) error {
	var a types.Achievement
	if err := ev.Decode(&a); err != nil {
		return err
	}
	list := merge.Prepend(s.Achievements, a, achievementKey)
	if len(list) > recentAchievements {
		list = list[:recentAchievements]
	}
	s.Achievements = list
	return nil
}

func achievementKey(a types.Achievement) string {
	if a.ID != "" {
		return a.ID
	}
	return a.Title + "|" + a.UnlockedAt
}

func (d *Dashboard) announce(ev *types.Event) {
	var a types.Achievement
	if ev.Decode(&a) != nil || d.opts.Sink == nil {
		return
	}
	title := a.Title
	if title == "" {
		title = "New achievement"
	}
	d.opts.Sink.Notify(alerts.Success("dashboard", "Achievement unlocked: "+title))
}
