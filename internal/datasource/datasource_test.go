package datasource

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/challenge-tracker/internal/api"
	"github.com/princekumarofficial/challenge-tracker/internal/config"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	_, err := New("mixed", nil, quietLogger())
	assert.Error(t, err)

	_, err = New(config.DataSourceRemote, nil, quietLogger())
	assert.Error(t, err)

	src, err := New(config.DataSourceSample, nil, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &Sample{}, src)
}

func TestSample_ListAndGet(t *testing.T) {
	s, err := NewSample(quietLogger())
	require.NoError(t, err)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "30 Days of Code", list[0].Title)
	assert.Equal(t, 128, list[0].ParticipantCount)

	c, err := s.Get(context.Background(), "104")
	require.NoError(t, err)
	assert.Equal(t, "learning", c.Category)

	_, err = s.Get(context.Background(), "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSample_LikeIsIdempotent(t *testing.T) {
	s, err := NewSample(quietLogger())
	require.NoError(t, err)

	res, err := s.Like(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, types.LikeResult{Liked: true, Likes: 57}, res)

	res, err = s.Like(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, 57, res.Likes)

	res, err = s.Unlike(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, types.LikeResult{Liked: false, Likes: 56}, res)
}

func TestParseSample_Invalid(t *testing.T) {
	_, err := parseSample([]byte("challenges: [oops"), quietLogger())
	assert.Error(t, err)
}

type dispatchRecorder struct {
	mu     sync.Mutex
	events []*types.Event
}

func (d *dispatchRecorder) Dispatch(ev *types.Event) {
	d.mu.Lock()
	d.events = append(d.events, ev)
	d.mu.Unlock()
}

func (d *dispatchRecorder) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func TestSample_Simulate(t *testing.T) {
	s, err := NewSample(quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	rec := &dispatchRecorder{}
	done := make(chan struct{})
	go func() {
		s.Simulate(ctx, rec, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	var u types.ParticipantCountUpdate
	rec.mu.Lock()
	require.NoError(t, rec.events[0].Decode(&u))
	rec.mu.Unlock()
	require.NotNil(t, u.Count)

	c, err := s.Get(context.Background(), u.ChallengeID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, c.ParticipantCount, *u.Count)
}

func TestRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "GET /api/challenges":
			json.NewEncoder(w).Encode(map[string]interface{}{"challenges": []types.ChallengeSummary{{ID: "c1", Title: "Run"}}})
		case "GET /api/challenges/c1":
			json.NewEncoder(w).Encode(types.ChallengeSummary{ID: "c1", Title: "Run"})
		case "POST /api/challenges/c1/like":
			json.NewEncoder(w).Encode(types.LikeResult{Liked: true, Likes: 1})
		case "DELETE /api/challenges/c1/like":
			json.NewEncoder(w).Encode(types.LikeResult{Liked: false, Likes: 0})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Challenge not found"})
		}
	}))
	defer srv.Close()

	src, err := New(config.DataSourceRemote, api.NewClient(srv.URL+"/api", time.Second, nil, quietLogger()), quietLogger())
	require.NoError(t, err)

	list, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	c, err := src.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Run", c.Title)

	res, err := src.Like(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, res.Liked)

	res, err = src.Unlike(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, res.Liked)

	_, err = src.Get(context.Background(), "zz")
	assert.EqualError(t, err, "Challenge not found")
}
