package viewstate

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/realtime"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingChannel is an offline realtime channel that remembers emits
type recordingChannel struct {
	*realtime.Channel

	mu    sync.Mutex
	emits []types.EventName
	ids   []interface{}
}

func newRecordingChannel() *recordingChannel {
	return &recordingChannel{Channel: realtime.NewChannel("ws://127.0.0.1:1/ws", quietLogger())}
}

func (c *recordingChannel) Emit(name types.EventName, payload interface{}) error {
	c.mu.Lock()
	c.emits = append(c.emits, name)
	c.ids = append(c.ids, payload)
	c.mu.Unlock()
	return c.Channel.Emit(name, payload)
}

func (c *recordingChannel) emitted() []types.EventName {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.EventName(nil), c.emits...)
}

func (c *recordingChannel) push(t *testing.T, name types.EventName, data interface{}) {
	t.Helper()
	ev, err := types.NewEvent(name, data)
	require.NoError(t, err)
	c.Dispatch(ev)
}

// gate releases a blocked fetch on demand
type gate struct {
	release chan struct{}
}

func newGate() *gate {
	return &gate{release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) open() {
	close(g.release)
}

func waitReady[S any](t *testing.T, v *View[S]) S {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, v.Wait(ctx))
	state, status, err := v.Snapshot()
	require.NoError(t, err)
	require.Equal(t, Ready, status)
	return state
}

func newRecorder() *alerts.Recorder {
	return &alerts.Recorder{}
}
