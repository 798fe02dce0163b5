// Package viewstate implements the lifecycle every live screen follows: seed
// state from a REST snapshot, merge realtime pushes into it, and release
// every handler and room on unmount.
package viewstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/realtime"
	"github.com/princekumarofficial/challenge-tracker/internal/types"
)

var (
	ErrUnmounted      = errors.New("view is not mounted")
	ErrAlreadyMounted = errors.New("view is already mounted")
	ErrNotReady       = errors.New("view has not finished loading")
)

type Status int

const (
	Loading Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Channel is the part of the realtime channel a view uses
type Channel interface {
	On(name types.EventName, fn realtime.Handler) realtime.Subscription
	Off(sub realtime.Subscription) bool
	Emit(name types.EventName, payload interface{}) error
}

// Binding merges one realtime event into the state. Apply runs under the view
// lock and must only touch state. Then, when set, runs afterwards outside the
// lock for side effects such as alerts or a refetch.
type Binding[S any] struct {
	Event types.EventName
	Apply func(state *S, ev *types.Event) error
	Then  func(ev *types.Event)
}

// Room is a scoped server-side group joined on mount and left on unmount
type Room struct {
	Join  types.EventName
	Leave types.EventName
	ID    string
}

type Options[S any] struct {
	// Name identifies the screen in logs and alerts
	Name     string
	Fetch    func(ctx context.Context) (S, error)
	Bindings []Binding[S]
	Room     *Room
	Channel  Channel
	Sink     alerts.Sink
	Logger   *slog.Logger
}

type listener[S any] func(state S, status Status)

// View holds one screen's state. Realtime patches that arrive while a fetch
// is in flight are applied to the current state and also replayed on top of
// the fetched snapshot, so a slow response never clobbers a newer push.
type View[S any] struct {
	opts   Options[S]
	logger *slog.Logger

	mu       sync.Mutex
	state    S
	status   Status
	err      error
	mounted  bool
	gen      uint64
	ctx      context.Context
	cancel   context.CancelFunc
	fetching bool
	pending  []func(*S)
	settled  chan struct{}
	subs     []realtime.Subscription

	lisMu     sync.Mutex
	listeners map[int]listener[S]
	nextLis   int
}

func New[S any](opts Options[S]) *View[S] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &View[S]{
		opts:      opts,
		logger:    logger.With(slog.String("view", opts.Name)),
		listeners: make(map[int]listener[S]),
	}
}

// Mount registers the view's handlers, joins its room and starts the
// initial fetch. The view reports Loading until the fetch resolves.
func (v *View[S]) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return ErrAlreadyMounted
	}
	var zero S
	v.state = zero
	v.status = Loading
	v.err = nil
	v.pending = nil
	v.mounted = true
	v.gen++
	gen := v.gen
	v.ctx, v.cancel = context.WithCancel(ctx)
	v.settled = make(chan struct{})
	v.fetching = true
	fetchCtx := v.ctx

	subs := make([]realtime.Subscription, 0, len(v.opts.Bindings))
	if v.opts.Channel != nil {
		for _, b := range v.opts.Bindings {
			subs = append(subs, v.opts.Channel.On(b.Event, v.handler(gen, b)))
		}
	}
	v.subs = subs
	v.mu.Unlock()

	if room := v.opts.Room; room != nil && v.opts.Channel != nil {
		if err := v.opts.Channel.Emit(room.Join, room.ID); err != nil {
			v.report(fmt.Errorf("failed to join live updates: %w", err))
		}
	}

	v.logger.Debug("View mounted", slog.Int("handlers", len(subs)))
	v.publish()
	go v.fetch(fetchCtx, gen)
	return nil
}

// Unmount cancels the in-flight fetch, removes every handler this mount
// registered and leaves the room. It is a no-op on an unmounted view.
func (v *View[S]) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	v.gen++
	v.cancel()
	v.pending = nil
	v.fetching = false
	subs := v.subs
	v.subs = nil
	closeOnce(v.settled)
	v.mu.Unlock()

	if v.opts.Channel != nil {
		for _, sub := range subs {
			v.opts.Channel.Off(sub)
		}
		if room := v.opts.Room; room != nil {
			if err := v.opts.Channel.Emit(room.Leave, room.ID); err != nil {
				v.report(fmt.Errorf("failed to leave live updates: %w", err))
			}
		}
	}
	v.logger.Debug("View unmounted", slog.Int("handlers", len(subs)))
}

// Refresh refetches the snapshot while keeping the current state on screen.
// It does nothing when a fetch is already running.
func (v *View[S]) Refresh() error {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return ErrUnmounted
	}
	if v.fetching {
		v.mu.Unlock()
		return nil
	}
	v.fetching = true
	gen, ctx := v.gen, v.ctx
	v.mu.Unlock()

	go v.fetch(ctx, gen)
	return nil
}

func (v *View[S]) fetch(ctx context.Context, gen uint64) {
	state, err := v.opts.Fetch(ctx)

	v.mu.Lock()
	if !v.mounted || v.gen != gen {
		v.mu.Unlock()
		v.logger.Debug("Discarding fetch result for unmounted view")
		return
	}
	v.fetching = false
	pending := v.pending
	v.pending = nil

	if err != nil {
		if v.status == Loading {
			v.status = Failed
			v.err = err
		}
		closeOnce(v.settled)
		v.mu.Unlock()

		v.report(err)
		v.publish()
		return
	}

	for _, patch := range pending {
		patch(&state)
	}
	v.state = state
	v.status = Ready
	v.err = nil
	closeOnce(v.settled)
	v.mu.Unlock()

	v.logger.Debug("View loaded", slog.Int("replayed", len(pending)))
	v.publish()
}

// closeOnce must be called with the view lock held
func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}

func (v *View[S]) handler(gen uint64, b Binding[S]) realtime.Handler {
	return func(ev *types.Event) {
		v.mu.Lock()
		if !v.mounted || v.gen != gen {
			v.mu.Unlock()
			return
		}

		var applyErr error
		if b.Apply != nil {
			applyErr = v.applyLocked(func(s *S) error { return b.Apply(s, ev) })
		}
		v.mu.Unlock()

		if applyErr != nil {
			v.logger.Warn("Failed to apply realtime event",
				slog.String("event", string(ev.Type)),
				slog.String("error", applyErr.Error()))
			v.report(fmt.Errorf("could not apply %s update: %w", ev.Type, applyErr))
			return
		}
		if b.Apply != nil {
			v.publish()
		}
		if b.Then != nil {
			b.Then(ev)
		}
	}
}

// applyLocked applies patch to the live state when loaded and remembers it
// for replay while a fetch is outstanding
func (v *View[S]) applyLocked(patch func(*S) error) error {
	if v.status == Ready {
		if err := patch(&v.state); err != nil {
			return err
		}
	}
	if v.fetching {
		v.pending = append(v.pending, func(s *S) {
			if err := patch(s); err != nil {
				v.report(fmt.Errorf("could not replay update: %w", err))
			}
		})
	}
	return nil
}

// Update applies a local change, such as an optimistic toggle
func (v *View[S]) Update(fn func(*S)) error {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return ErrUnmounted
	}
	if v.status != Ready {
		v.mu.Unlock()
		return ErrNotReady
	}
	_ = v.applyLocked(func(s *S) error {
		fn(s)
		return nil
	})
	v.mu.Unlock()

	v.publish()
	return nil
}

// Snapshot returns the current state, status and load error
func (v *View[S]) Snapshot() (S, Status, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state, v.status, v.err
}

// Mounted reports whether the view is currently mounted
func (v *View[S]) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// Wait blocks until the current mount's initial fetch resolves. It returns
// the load error, or ErrUnmounted when the view was unmounted first.
func (v *View[S]) Wait(ctx context.Context) error {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return ErrUnmounted
	}
	settled := v.settled
	v.mu.Unlock()

	select {
	case <-settled:
	case <-ctx.Done():
		return ctx.Err()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return ErrUnmounted
	}
	return v.err
}

// OnChange registers fn to receive the state after every change. The
// returned func removes it.
func (v *View[S]) OnChange(fn func(state S, status Status)) func() {
	v.lisMu.Lock()
	id := v.nextLis
	v.nextLis++
	v.listeners[id] = fn
	v.lisMu.Unlock()

	return func() {
		v.lisMu.Lock()
		delete(v.listeners, id)
		v.lisMu.Unlock()
	}
}

func (v *View[S]) publish() {
	state, status, _ := v.Snapshot()

	v.lisMu.Lock()
	fns := make([]listener[S], 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	v.lisMu.Unlock()

	for _, fn := range fns {
		fn(state, status)
	}
}

func (v *View[S]) report(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	v.logger.Error("View error", slog.String("error", err.Error()))
	if v.opts.Sink != nil {
		v.opts.Sink.Notify(alerts.Error(v.opts.Name, err))
	}
}
