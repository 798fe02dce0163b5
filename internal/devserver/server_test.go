package devserver_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/api"
	"github.com/princekumarofficial/challenge-tracker/internal/config"
	"github.com/princekumarofficial/challenge-tracker/internal/devserver"
	"github.com/princekumarofficial/challenge-tracker/internal/realtime"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
	"github.com/princekumarofficial/challenge-tracker/internal/types/notifications"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
	"github.com/princekumarofficial/challenge-tracker/internal/viewstate"
)

type staticCreds struct{ token string }

func (c staticCreds) Token() string             { return c.token }
func (c staticCreds) HandleUnauthorized(string) {}

type testServer struct {
	srv    *devserver.Server
	http   *httptest.Server
	apiURL string
	wsURL  string
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{DevServer: config.DevServer{JWTSecret: "test-secret", LikeRateLimit: 60}}
	srv, err := devserver.New(ctx, cfg, quietLogger())
	require.NoError(t, err)

	go srv.Hub().Run(ctx)

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	return &testServer{
		srv:    srv,
		http:   hs,
		apiURL: hs.URL + "/api",
		wsURL:  "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws",
	}
}

func (ts *testServer) login(t *testing.T, email, password string) (users.AuthResponse, *api.Client) {
	t.Helper()
	resp, err := api.NewAuth(ts.apiURL, 5*time.Second, quietLogger()).Login(context.Background(),
		users.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	return resp, api.NewClient(ts.apiURL, 5*time.Second, staticCreds{resp.Token}, quietLogger())
}

func (ts *testServer) register(t *testing.T, email string) (users.AuthResponse, *api.Client) {
	t.Helper()
	resp, err := api.NewAuth(ts.apiURL, 5*time.Second, quietLogger()).Register(context.Background(),
		users.RegisterRequest{Email: email, Password: "secret123", FirstName: "Test", LastName: "User"})
	require.NoError(t, err)
	return resp, api.NewClient(ts.apiURL, 5*time.Second, staticCreds{resp.Token}, quietLogger())
}

func (ts *testServer) connect(t *testing.T, auth users.AuthResponse) *realtime.Channel {
	t.Helper()
	ch := realtime.NewChannel(ts.wsURL, quietLogger())
	require.NoError(t, ch.Connect(context.Background(), auth.Token))
	t.Cleanup(ch.Disconnect)
	require.Eventually(t, func() bool {
		return ts.srv.Hub().IsUserConnected(auth.User.ID)
	}, 2*time.Second, 10*time.Millisecond)
	return ch
}

func TestHealth(t *testing.T) {
	ts := startServer(t)

	resp, err := http.Get(ts.http.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDemoAccountStartsFresh(t *testing.T) {
	ts := startServer(t)
	_, client := ts.login(t, devserver.DemoEmail, devserver.DemoPassword)

	profile, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Level)
	assert.Equal(t, 0, profile.Experience)

	list, err := client.Challenges(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 5)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := startServer(t)
	_, err := api.NewAuth(ts.apiURL, 5*time.Second, quietLogger()).Login(context.Background(),
		users.LoginRequest{Email: devserver.DemoEmail, Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := startServer(t)
	client := api.NewClient(ts.apiURL, 5*time.Second, staticCreds{}, quietLogger())

	_, err := client.Profile(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
}

func TestRevokedSessionIsRejected(t *testing.T) {
	ts := startServer(t)
	_, oldClient := ts.login(t, devserver.DemoEmail, devserver.DemoPassword)
	_, newClient := ts.login(t, devserver.DemoEmail, devserver.DemoPassword)

	require.NoError(t, newClient.RevokeAllSessions(context.Background()))

	_, err := oldClient.Profile(context.Background())
	assert.True(t, api.IsUnauthorized(err))

	_, err = newClient.Profile(context.Background())
	assert.NoError(t, err)
}

func TestProgressPushesStatsToDashboard(t *testing.T) {
	ts := startServer(t)
	auth, client := ts.login(t, devserver.DemoEmail, devserver.DemoPassword)
	ch := ts.connect(t, auth)

	dash := viewstate.NewDashboard(client, ch, &alerts.Recorder{}, quietLogger())
	require.NoError(t, dash.Mount(context.Background()))
	t.Cleanup(dash.Unmount)
	require.NoError(t, dash.Wait(context.Background()))

	require.NoError(t, client.JoinChallenge(context.Background(), "101"))
	require.NoError(t, client.SubmitProgress(context.Background(), "101", types.ProgressRequest{Description: "first run"}))

	require.Eventually(t, func() bool {
		s, _, _ := dash.Snapshot()
		return s.Profile.Experience == 10 && s.Profile.Streak == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		s, _, _ := dash.Snapshot()
		return len(s.Achievements) == 1 && s.Profile.UnreadNotificationCount == 1
	}, 2*time.Second, 10*time.Millisecond)

	s, _, _ := dash.Snapshot()
	assert.Equal(t, "first-step", s.Achievements[0].ID)

	profile, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, profile.Experience)
}

func TestProgressRequiresJoin(t *testing.T) {
	ts := startServer(t)
	_, client := ts.login(t, devserver.DemoEmail, devserver.DemoPassword)

	err := client.SubmitProgress(context.Background(), "101", types.ProgressRequest{Description: "sneaky"})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))
}

func TestParticipantJoinedReachesRoom(t *testing.T) {
	ts := startServer(t)
	demo, _ := ts.login(t, devserver.DemoEmail, devserver.DemoPassword)
	ch := ts.connect(t, demo)

	joined := make(chan types.ParticipantJoined, 1)
	ch.On(types.EventParticipantJoined, func(ev *types.Event) {
		var p types.ParticipantJoined
		if ev.Decode(&p) == nil {
			joined <- p
		}
	})
	require.NoError(t, ch.Emit(types.EventJoinChallenge, "102"))
	require.Eventually(t, func() bool {
		return ts.srv.Hub().RoomSize("challenge:102") == 1
	}, 2*time.Second, 10*time.Millisecond)

	other, otherClient := ts.register(t, "other@example.com")
	require.NoError(t, otherClient.JoinChallenge(context.Background(), "102"))

	select {
	case p := <-joined:
		assert.Equal(t, "102", p.ChallengeID)
		assert.Equal(t, other.User.ID, p.UserID)
		assert.Equal(t, "Test User", p.Username)
	case <-time.After(2 * time.Second):
		t.Fatal("participant_joined not received")
	}
}

func TestLikeBroadcastsCount(t *testing.T) {
	ts := startServer(t)
	demo, client := ts.login(t, devserver.DemoEmail, devserver.DemoPassword)
	ch := ts.connect(t, demo)

	before, err := client.Challenge(context.Background(), "103")
	require.NoError(t, err)

	patches := make(chan types.ChallengePatch, 1)
	ch.On(types.EventChallengeUpdate, func(ev *types.Event) {
		var p types.ChallengePatch
		if ev.Decode(&p) == nil {
			patches <- p
		}
	})

	res, err := client.LikeChallenge(context.Background(), "103")
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, before.LikeCount+1, res.Likes)

	select {
	case p := <-patches:
		assert.Equal(t, "103", p.ID)
		require.NotNil(t, p.LikeCount)
		assert.Equal(t, res.Likes, *p.LikeCount)
	case <-time.After(2 * time.Second):
		t.Fatal("challenge_update not received")
	}
}

func TestFriendRequestFlow(t *testing.T) {
	ts := startServer(t)
	demo, demoClient := ts.login(t, devserver.DemoEmail, devserver.DemoPassword)
	_, otherClient := ts.register(t, "friend@example.com")
	ctx := context.Background()

	require.NoError(t, otherClient.SendFriendRequest(ctx, demo.User.ID))

	requests, err := demoClient.FriendRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.NoError(t, demoClient.AcceptFriendRequest(ctx, requests[0].ID))

	friends, err := otherClient.Friends(ctx)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, demo.User.ID, friends[0].ID)
	assert.False(t, friends[0].IsOnline)

	// the sender is told the request was accepted
	list, err := otherClient.Notifications(ctx, notifications.FilterAll)
	require.NoError(t, err)
	assert.Equal(t, 1, list.UnreadCount)

	ts.connect(t, demo)
	friends, err = otherClient.Friends(ctx)
	require.NoError(t, err)
	assert.True(t, friends[0].IsOnline)
}
