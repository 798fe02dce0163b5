// Package alerts carries user-visible failure and status signals from the
// SDK to whatever renders them. Every failure path reports here; a log line
// alone is never the only signal.
package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Alert struct {
	Severity Severity  `json:"severity"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}

// Sink receives alerts. Implementations must not block.
type Sink interface {
	Notify(Alert)
}

// Error builds an error alert from err
func Error(source string, err error) Alert {
	return Alert{Severity: SeverityError, Source: source, Message: err.Error()}
}

func Info(source, message string) Alert {
	return Alert{Severity: SeverityInfo, Source: source, Message: message}
}

func Success(source, message string) Alert {
	return Alert{Severity: SeveritySuccess, Source: source, Message: message}
}

func Warning(source, message string) Alert {
	return Alert{Severity: SeverityWarning, Source: source, Message: message}
}

// Feed fans alerts out to every subscriber. A subscriber whose buffer is full
// misses the alert rather than stalling the sender.
type Feed struct {
	mu     sync.RWMutex
	subs   map[chan Alert]struct{}
	logger *slog.Logger
}

func NewFeed(logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		subs:   make(map[chan Alert]struct{}),
		logger: logger,
	}
}

// Subscribe returns a channel of alerts and a func that detaches it
func (f *Feed) Subscribe() (<-chan Alert, func()) {
	ch := make(chan Alert, 32)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *Feed) Notify(a Alert) {
	if a.Time.IsZero() {
		a.Time = time.Now()
	}

	level := slog.LevelInfo
	switch a.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityError:
		level = slog.LevelError
	}
	f.logger.Log(context.Background(), level, "alert",
		slog.String("source", a.Source),
		slog.String("message", a.Message))

	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subs {
		select {
		case ch <- a:
		default:
			f.logger.Warn("Alert subscriber is full, dropping alert", slog.String("source", a.Source))
		}
	}
}

// Recorder is a Sink that keeps every alert it receives
type Recorder struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *Recorder) Notify(a Alert) {
	r.mu.Lock()
	r.alerts = append(r.alerts, a)
	r.mu.Unlock()
}

// Alerts returns a copy of the recorded alerts
func (r *Recorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Alert(nil), r.alerts...)
}

// Errors returns only the error alerts
func (r *Recorder) Errors() []Alert {
	var out []Alert
	for _, a := range r.Alerts() {
		if a.Severity == SeverityError {
			out = append(out, a)
		}
	}
	return out
}
