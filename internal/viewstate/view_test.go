package viewstate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

type counterState struct {
	Level  int
	Streak int
}

func counterView(ch Channel, fetch func(ctx context.Context) (counterState, error)) *View[counterState] {
	return New(Options[counterState]{
		Name:    "counter",
		Channel: ch,
		Logger:  quietLogger(),
		Fetch:   fetch,
		Bindings: []Binding[counterState]{
			{Event: types.EventLevelUpdate, Apply: counter("level", func(s *counterState) *int { return &s.Level })},
			{Event: types.EventStreakUpdate, Apply: counter("streak", func(s *counterState) *int { return &s.Streak })},
		},
	})
}

func TestView_PushBeforeFetchIsReplayed(t *testing.T) {
	ch := newRecordingChannel()
	g := newGate()

	v := counterView(ch, func(ctx context.Context) (counterState, error) {
		if err := g.wait(ctx); err != nil {
			return counterState{}, err
		}
		return counterState{Level: 1, Streak: 4}, nil
	})
	require.NoError(t, v.Mount(context.Background()))
	defer v.Unmount()

	_, status, _ := v.Snapshot()
	assert.Equal(t, Loading, status)

	ch.push(t, types.EventLevelUpdate, map[string]int{"level": 3})
	g.open()

	state := waitReady(t, v)
	assert.Equal(t, counterState{Level: 3, Streak: 4}, state)
}

func TestView_FailedFetchIsSurfaced(t *testing.T) {
	rec := newRecorder()
	v := New(Options[counterState]{
		Name:   "counter",
		Sink:   rec,
		Logger: quietLogger(),
		Fetch: func(ctx context.Context) (counterState, error) {
			return counterState{}, errors.New("API request failed")
		},
	})
	require.NoError(t, v.Mount(context.Background()))
	defer v.Unmount()

	err := v.Wait(context.Background())
	assert.EqualError(t, err, "API request failed")

	_, status, loadErr := v.Snapshot()
	assert.Equal(t, Failed, status)
	assert.Error(t, loadErr)
	require.Len(t, rec.Errors(), 1)
	assert.Equal(t, "counter", rec.Errors()[0].Source)

	assert.ErrorIs(t, v.Update(func(*counterState) {}), ErrNotReady)
}

func TestView_UnmountCancelsFetch(t *testing.T) {
	ch := newRecordingChannel()
	cancelled := make(chan struct{})

	v := counterView(ch, func(ctx context.Context) (counterState, error) {
		<-ctx.Done()
		close(cancelled)
		return counterState{Level: 99}, nil
	})
	require.NoError(t, v.Mount(context.Background()))

	var changes atomic.Int32
	v.OnChange(func(counterState, Status) { changes.Add(1) })

	v.Unmount()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch context was not cancelled")
	}

	time.Sleep(20 * time.Millisecond)
	state, _, _ := v.Snapshot()
	assert.Zero(t, state.Level)
	assert.Zero(t, changes.Load())
	assert.ErrorIs(t, v.Wait(context.Background()), ErrUnmounted)
}

func TestView_HandlerPairsAcrossMounts(t *testing.T) {
	ch := newRecordingChannel()
	v := counterView(ch, func(ctx context.Context) (counterState, error) {
		return counterState{Level: 1}, nil
	})

	const n = 25
	for i := 0; i < n; i++ {
		require.NoError(t, v.Mount(context.Background()))
		assert.Equal(t, 2, ch.HandlerTotal())
		assert.ErrorIs(t, v.Mount(context.Background()), ErrAlreadyMounted)
		waitReady(t, v)
		v.Unmount()
		assert.Equal(t, 0, ch.HandlerTotal())
	}

	var fired atomic.Int32
	v.OnChange(func(counterState, Status) { fired.Add(1) })
	ch.push(t, types.EventStreakUpdate, 9)
	assert.Zero(t, fired.Load())
}

func TestView_ScreensAreIndependent(t *testing.T) {
	ch := newRecordingChannel()
	fetch := func(ctx context.Context) (counterState, error) { return counterState{}, nil }

	a := counterView(ch, fetch)
	b := counterView(ch, fetch)
	require.NoError(t, a.Mount(context.Background()))
	require.NoError(t, b.Mount(context.Background()))
	waitReady(t, a)
	waitReady(t, b)

	a.Unmount()
	assert.Equal(t, 1, ch.HandlerCount(types.EventLevelUpdate))

	ch.push(t, types.EventLevelUpdate, 7)
	state, _, _ := b.Snapshot()
	assert.Equal(t, 7, state.Level)
	b.Unmount()
}

func TestView_RefreshKeepsNewerPush(t *testing.T) {
	ch := newRecordingChannel()
	var calls atomic.Int32
	g := newGate()

	v := counterView(ch, func(ctx context.Context) (counterState, error) {
		if calls.Add(1) == 1 {
			return counterState{Level: 1, Streak: 1}, nil
		}
		if err := g.wait(ctx); err != nil {
			return counterState{}, err
		}
		return counterState{Level: 2, Streak: 1}, nil
	})
	require.NoError(t, v.Mount(context.Background()))
	defer v.Unmount()
	waitReady(t, v)

	require.NoError(t, v.Refresh())
	ch.push(t, types.EventStreakUpdate, map[string]int{"streak": 8})

	state, _, _ := v.Snapshot()
	assert.Equal(t, 8, state.Streak)

	g.open()
	require.Eventually(t, func() bool {
		s, _, _ := v.Snapshot()
		return s.Level == 2
	}, 2*time.Second, 10*time.Millisecond)

	state, _, _ = v.Snapshot()
	assert.Equal(t, counterState{Level: 2, Streak: 8}, state)
}

func TestView_BadPayloadAlerts(t *testing.T) {
	ch := newRecordingChannel()
	rec := newRecorder()
	v := New(Options[counterState]{
		Name:    "counter",
		Channel: ch,
		Sink:    rec,
		Logger:  quietLogger(),
		Fetch:   func(ctx context.Context) (counterState, error) { return counterState{Level: 1}, nil },
		Bindings: []Binding[counterState]{
			{Event: types.EventLevelUpdate, Apply: counter("level", func(s *counterState) *int { return &s.Level })},
		},
	})
	require.NoError(t, v.Mount(context.Background()))
	defer v.Unmount()
	waitReady(t, v)

	ch.push(t, types.EventLevelUpdate, "two")

	state, _, _ := v.Snapshot()
	assert.Equal(t, 1, state.Level)
	assert.Len(t, rec.Errors(), 1)
}

type profileFunc func(ctx context.Context) (users.Profile, error)

func (f profileFunc) Profile(ctx context.Context) (users.Profile, error) {
	return f(ctx)
}

func TestDashboard_LevelUpdateKeepsExperience(t *testing.T) {
	ch := newRecordingChannel()
	d := NewDashboard(profileFunc(func(ctx context.Context) (users.Profile, error) {
		return users.Profile{Level: 1, Experience: 0}, nil
	}), ch, newRecorder(), quietLogger())

	require.NoError(t, d.Mount(context.Background()))
	state := waitReady(t, d.View)
	assert.Equal(t, 1, state.Profile.Level)
	assert.Equal(t, 0, state.Profile.Experience)

	ch.push(t, types.EventLevelUpdate, map[string]int{"level": 2})
	state, _, _ = d.Snapshot()
	assert.Equal(t, 2, state.Profile.Level)
	assert.Equal(t, 0, state.Profile.Experience)

	var afterUnmount atomic.Int32
	d.OnChange(func(DashboardState, Status) { afterUnmount.Add(1) })
	d.Unmount()

	assert.NotPanics(t, func() {
		ch.push(t, types.EventStreakUpdate, map[string]int{"streak": 5})
	})
	assert.Zero(t, afterUnmount.Load())
	assert.Zero(t, ch.HandlerTotal())
}

func TestDashboard_CounterIgnoresSiblingFields(t *testing.T) {
	ch := newRecordingChannel()
	rec := newRecorder()
	d := NewDashboard(profileFunc(func(ctx context.Context) (users.Profile, error) {
		return users.Profile{Level: 1, Experience: 40}, nil
	}), ch, rec, quietLogger())

	require.NoError(t, d.Mount(context.Background()))
	defer d.Unmount()
	waitReady(t, d.View)

	ch.push(t, types.EventLevelUpdate, map[string]interface{}{"level": 2, "message": "Level up!"})
	state, _, _ := d.Snapshot()
	assert.Equal(t, 2, state.Profile.Level)
	assert.Equal(t, 40, state.Profile.Experience)

	ch.push(t, types.EventStreakUpdate, map[string]interface{}{"message": "no streak here"})
	state, _, _ = d.Snapshot()
	assert.Equal(t, 0, state.Profile.Streak)
	assert.Empty(t, rec.Errors())

	ch.push(t, types.EventLevelUpdate, map[string]interface{}{"level": "three"})
	state, _, _ = d.Snapshot()
	assert.Equal(t, 2, state.Profile.Level)
	assert.Len(t, rec.Errors(), 1)
}

func TestDashboard_StatsAndAchievements(t *testing.T) {
	ch := newRecordingChannel()
	rec := newRecorder()
	d := NewDashboard(profileFunc(func(ctx context.Context) (users.Profile, error) {
		return users.Profile{Level: 3, Experience: 120, Streak: 2, UnreadCount: 1}, nil
	}), ch, rec, quietLogger())

	require.NoError(t, d.Mount(context.Background()))
	defer d.Unmount()
	waitReady(t, d.View)

	ch.push(t, types.EventStatsUpdate, map[string]int{"totalPoints": 150, "currentLevel": 4})
	ch.push(t, types.EventUnreadCountUpdate, 6)
	for i := 0; i < recentAchievements+2; i++ {
		ch.push(t, types.EventAchievementUnlocked, types.Achievement{ID: string(rune('a' + i)), Title: "First steps"})
	}

	state, _, _ := d.Snapshot()
	assert.Equal(t, types.ProfileSnapshot{Level: 4, Experience: 150, Streak: 2, UnreadNotificationCount: 6}, state.Profile)
	require.Len(t, state.Achievements, recentAchievements)
	assert.Equal(t, "g", state.Achievements[0].ID)

	var unlocked int
	for _, a := range rec.Alerts() {
		if a.Message == "Achievement unlocked: First steps" {
			unlocked++
		}
	}
	assert.Equal(t, recentAchievements+2, unlocked)
}
