package realtime

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/session"
)

// SessionSource is the part of the session store the supervisor observes
type SessionSource interface {
	Token() string
	Subscribe(fn func(session.Event)) func()
}

// Backoff is a capped exponential delay with jitter
type Backoff struct {
	Min time.Duration
	Max time.Duration
}

// Delay returns the wait before the given zero-based retry attempt: a random
// duration in [d/2, d] where d = Min*2^attempt capped at Max.
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Min
	for i := 0; i < attempt && d < b.Max; i++ {
		d *= 2
	}
	if d > b.Max {
		d = b.Max
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half+1)
}

// Supervisor keeps the channel connected for as long as a session exists:
// it connects when a session is acquired, disconnects when it is cleared, and
// reconnects with backoff after transport failures.
type Supervisor struct {
	ch      *Channel
	store   SessionSource
	backoff Backoff
	sink    alerts.Sink
	logger  *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	loop    context.CancelFunc
	loopGen uint64
	lost    bool

	unsubs []func()
}

func NewSupervisor(ch *Channel, store SessionSource, backoff Backoff, sink alerts.Sink, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		ch:      ch,
		store:   store,
		backoff: backoff,
		sink:    sink,
		logger:  logger,
	}
}

// Start begins observing the session. It connects right away when a session
// already exists.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.unsubs = append(s.unsubs,
		s.store.Subscribe(s.onSession),
		s.ch.OnStateChange(s.onState),
	)

	if token := s.store.Token(); token != "" {
		s.restart(token)
	}
}

// Stop detaches from the session and closes the channel
func (s *Supervisor) Stop() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil

	s.mu.Lock()
	if s.loop != nil {
		s.loop()
		s.loop = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.ch.Disconnect()
}

func (s *Supervisor) onSession(ev session.Event) {
	switch ev.Transition {
	case session.Acquired:
		s.restart(ev.Session.Token)
	case session.Cleared:
		s.mu.Lock()
		if s.loop != nil {
			s.loop()
			s.loop = nil
		}
		s.lost = false
		s.mu.Unlock()
		s.ch.Disconnect()
	}
}

func (s *Supervisor) onState(state State, err error) {
	if state != Disconnected || err == nil {
		return
	}

	token := s.store.Token()
	if token == "" {
		return
	}

	s.mu.Lock()
	running := s.loop != nil
	if !running {
		s.lost = true
	}
	s.mu.Unlock()

	if !running {
		s.sink.Notify(alerts.Warning("realtime", "Live updates interrupted, reconnecting"))
		s.restart(token)
	}
}

// restart replaces any running connect loop with one for token
func (s *Supervisor) restart(token string) {
	s.mu.Lock()
	if s.ctx == nil {
		s.mu.Unlock()
		return
	}
	if s.loop != nil {
		s.loop()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.loop = cancel
	s.loopGen++
	gen := s.loopGen
	s.mu.Unlock()

	go s.connectLoop(ctx, gen, token)
}

func (s *Supervisor) connectLoop(ctx context.Context, gen uint64, token string) {
	defer func() {
		s.mu.Lock()
		if s.loopGen == gen {
			s.loop = nil
		}
		s.mu.Unlock()
	}()

	for attempt := 0; ; attempt++ {
		err := s.ch.Connect(ctx, token)
		if err == nil {
			s.mu.Lock()
			wasLost := s.lost
			s.lost = false
			s.mu.Unlock()
			if wasLost {
				s.sink.Notify(alerts.Success("realtime", "Live updates restored"))
			}
			return
		}
		if ctx.Err() != nil || errors.Is(err, ErrSuperseded) {
			return
		}

		if attempt == 0 {
			msg := "Live updates unavailable, retrying"
			if errors.Is(err, ErrRejected) {
				msg = "Live updates refused the current session, retrying"
			}
			s.sink.Notify(alerts.Warning("realtime", msg))
		}

		delay := s.backoff.Delay(attempt)
		s.logger.Info("Realtime reconnect scheduled",
			slog.Int("attempt", attempt+1),
			slog.String("delay", delay.String()),
			slog.String("error", err.Error()))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
