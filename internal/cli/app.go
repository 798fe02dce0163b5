package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/princekumarofficial/challenge-tracker/internal/alerts"
	"github.com/princekumarofficial/challenge-tracker/internal/api"
	"github.com/princekumarofficial/challenge-tracker/internal/config"
	"github.com/princekumarofficial/challenge-tracker/internal/datasource"
	"github.com/princekumarofficial/challenge-tracker/internal/logger"
	"github.com/princekumarofficial/challenge-tracker/internal/realtime"
	"github.com/princekumarofficial/challenge-tracker/internal/session"
	"github.com/princekumarofficial/challenge-tracker/internal/viewstate"
)

var ErrNotLoggedIn = errors.New("not logged in: run `challenge-cli login` first")

// App is what every command runs against: the restored session, the REST
// client and the alert feed printed to stderr
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	feed    *alerts.Feed
	session *session.Store
	client  *api.Client
	out     *Printer

	redis     *redis.Client
	stopFeed  func()
	feedDone  chan struct{}
	closeOnce sync.Once
}

func newApp(cmd *cobra.Command, opts *RootOptions) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	errOut := cmd.ErrOrStderr()
	log := logger.NewWithWriter(errOut, cfg.Env, cfg.LogLevel)

	a := &App{
		cfg:      cfg,
		logger:   log,
		feed:     alerts.NewFeed(log),
		out:      &Printer{Format: opts.Format, Writer: cmd.OutOrStdout()},
		feedDone: make(chan struct{}),
	}
	alertCh, stop := a.feed.Subscribe()
	a.stopFeed = stop
	go printAlerts(errOut, alertCh, a.feedDone)

	persister, err := a.persister()
	if err != nil {
		a.Close()
		return nil, err
	}

	auth := api.NewAuth(cfg.API.BaseURL, cfg.API.Timeout, log)
	a.session = session.NewStore(auth, persister, a.feed, log)
	if _, err := a.session.Restore(cmd.Context()); err != nil {
		a.Close()
		return nil, err
	}
	a.client = api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, a.session, log)
	return a, nil
}

func (a *App) persister() (session.Persister, error) {
	switch a.cfg.Session.Backend {
	case config.SessionBackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Address,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		return session.NewRedisPersister(a.redis, a.cfg.Session.Key), nil
	case config.SessionBackendFile:
		return session.NewFilePersister(a.cfg.Session.Path), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", a.cfg.Session.Backend)
	}
}

// Close flushes pending alerts and releases connections
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.stopFeed()
		<-a.feedDone
		if a.redis != nil {
			a.redis.Close()
		}
	})
}

func printAlerts(w io.Writer, ch <-chan alerts.Alert, done chan<- struct{}) {
	defer close(done)
	for a := range ch {
		fmt.Fprintf(w, "[%s] %s: %s\n", a.Severity, a.Source, a.Message)
	}
}

func (a *App) requireSession() error {
	if !a.session.Authenticated() {
		return ErrNotLoggedIn
	}
	return nil
}

func (a *App) source() (datasource.ChallengeSource, error) {
	return datasource.New(a.cfg.DataSource, a.client, a.logger)
}

// live connects a realtime channel for the session. The returned func
// disconnects it.
func (a *App) live(ctx context.Context) (viewstate.Channel, func()) {
	ch := realtime.NewChannel(a.cfg.Realtime.URL, a.logger)
	sup := realtime.NewSupervisor(ch, a.session, realtime.Backoff{
		Min: a.cfg.Realtime.ReconnectMin,
		Max: a.cfg.Realtime.ReconnectMax,
	}, a.feed, a.logger)
	sup.Start(ctx)
	return ch, sup.Stop
}

// channel returns a live channel when watching and none otherwise
func (a *App) channel(ctx context.Context, watch bool) (viewstate.Channel, func()) {
	if !watch {
		return nil, func() {}
	}
	return a.live(ctx)
}

// withApp runs fn with a fresh App and closes it afterwards
func withApp(opts *RootOptions, fn func(cmd *cobra.Command, app *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, opts)
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(cmd, app, args)
	}
}

// load mounts v and waits for its first snapshot
func load[S any](ctx context.Context, v *viewstate.View[S]) (S, error) {
	if err := v.Mount(ctx); err != nil {
		var zero S
		return zero, err
	}
	if err := v.Wait(ctx); err != nil {
		var zero S
		return zero, err
	}
	state, _, _ := v.Snapshot()
	return state, nil
}

// watch prints every change of v until ctx ends
func watch[S any](ctx context.Context, v *viewstate.View[S], print func(S) error) error {
	changes := make(chan S, 16)
	stop := v.OnChange(func(state S, status viewstate.Status) {
		if status != viewstate.Ready {
			return
		}
		select {
		case changes <- state:
		default:
		}
	})
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case state := <-changes:
			if err := print(state); err != nil {
				return err
			}
		}
	}
}
