package realtime

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/session"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
)

type stubAuth struct{}

func (stubAuth) Login(ctx context.Context, req users.LoginRequest) (users.AuthResponse, error) {
	return users.AuthResponse{Token: "tok-" + req.Email, User: users.User{ID: "u1", Email: req.Email}}, nil
}

func (stubAuth) Register(ctx context.Context, req users.RegisterRequest) (users.AuthResponse, error) {
	return users.AuthResponse{}, nil
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Min: 100 * time.Millisecond, Max: time.Second}

	for attempt := 0; attempt < 10; attempt++ {
		d := b.Delay(attempt)
		assert.LessOrEqual(t, d, time.Second)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
	}
	assert.GreaterOrEqual(t, b.Delay(8), 500*time.Millisecond)
}

func TestSupervisor_FollowsSession(t *testing.T) {
	srv := newWSServer(t)
	rec := &alerts.Recorder{}
	store := session.NewStore(stubAuth{}, session.NewFilePersister(filepath.Join(t.TempDir(), "s.json")), rec, quietLogger())

	ch := NewChannel(srv.url(), quietLogger())
	sup := NewSupervisor(ch, store, Backoff{Min: 10 * time.Millisecond, Max: 50 * time.Millisecond}, rec, quietLogger())
	sup.Start(context.Background())
	defer sup.Stop()

	assert.Equal(t, Disconnected, ch.State())

	require.True(t, store.Login(context.Background(), "demo@example.com", "password123").Success)
	assert.Equal(t, "tok-demo@example.com", srv.waitConnected(t))
	require.Eventually(t, func() bool { return ch.State() == Connected }, 2*time.Second, 10*time.Millisecond)

	store.Logout()
	require.Eventually(t, func() bool { return ch.State() == Disconnected }, 2*time.Second, 10*time.Millisecond)
}

func TestSupervisor_ReconnectsAfterLoss(t *testing.T) {
	srv := newWSServer(t)
	rec := &alerts.Recorder{}
	store := session.NewStore(stubAuth{}, session.NewFilePersister(filepath.Join(t.TempDir(), "s.json")), rec, quietLogger())
	require.True(t, store.Login(context.Background(), "demo@example.com", "password123").Success)

	ch := NewChannel(srv.url(), quietLogger())
	sup := NewSupervisor(ch, store, Backoff{Min: 10 * time.Millisecond, Max: 50 * time.Millisecond}, rec, quietLogger())
	sup.Start(context.Background())
	defer sup.Stop()

	srv.waitConnected(t)
	require.Eventually(t, func() bool { return ch.State() == Connected }, 2*time.Second, 10*time.Millisecond)

	srv.dropAll()

	srv.waitConnected(t)
	require.Eventually(t, func() bool { return ch.State() == Connected }, 2*time.Second, 10*time.Millisecond)

	var sawLost, sawRestored bool
	require.Eventually(t, func() bool {
		for _, a := range rec.Alerts() {
			sawLost = sawLost || a.Message == "Live updates interrupted, reconnecting"
			sawRestored = sawRestored || a.Message == "Live updates restored"
		}
		return sawLost && sawRestored
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSupervisor_NoReconnectWithoutSession(t *testing.T) {
	srv := newWSServer(t)
	rec := &alerts.Recorder{}
	store := session.NewStore(stubAuth{}, session.NewFilePersister(filepath.Join(t.TempDir(), "s.json")), rec, quietLogger())
	require.True(t, store.Login(context.Background(), "demo@example.com", "password123").Success)

	ch := NewChannel(srv.url(), quietLogger())
	sup := NewSupervisor(ch, store, Backoff{Min: 10 * time.Millisecond, Max: 50 * time.Millisecond}, rec, quietLogger())
	sup.Start(context.Background())
	defer sup.Stop()
	srv.waitConnected(t)

	store.Logout()
	require.Eventually(t, func() bool { return ch.State() == Disconnected }, 2*time.Second, 10*time.Millisecond)

	select {
	case <-srv.connected:
		t.Fatal("channel reconnected without a session")
	case <-time.After(150 * time.Millisecond):
	}
}
