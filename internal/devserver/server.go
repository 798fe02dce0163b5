// Package devserver assembles the local backend: REST handlers, the
// realtime hub, the event publisher and the activity simulator, over
// in-memory storage seeded with a demo account and sample challenges.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/challenge-tracker/internal/config"
	"github.com/princekumarofficial/challenge-tracker/internal/datasource"
	"github.com/princekumarofficial/challenge-tracker/internal/events"
	"github.com/princekumarofficial/challenge-tracker/internal/storage"
	"github.com/princekumarofficial/challenge-tracker/internal/storage/memory"
	"github.com/princekumarofficial/challenge-tracker/internal/types/users"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/password"
	"github.com/princekumarofficial/challenge-tracker/internal/websocket"
	"golang.org/x/sync/errgroup"
)

// Demo account created on startup
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password123"
)

type Server struct {
	cfg    config.DevServer
	logger *slog.Logger

	store     *memory.Store
	redis     *redis.Client
	hub       *websocket.Hub
	publisher *events.EventPublisher
	notifier  *events.Notifier
	router    http.Handler
}

// New builds a seeded server. Redis, when configured, backs like rate
// limiting and challenge caching.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg.DevServer,
		logger: logger,
		store:  memory.New(),
		hub:    websocket.NewHub(logger),
	}
	s.publisher = events.NewEventPublisher(s.hub, logger)
	s.notifier = events.NewNotifier(s.store, s.publisher, logger)
	s.hub.OnPresence(s.announcePresence)

	if cfg.Redis.Address != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.redis.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("Connected to Redis", slog.String("address", cfg.Redis.Address))
	}

	if err := s.seed(ctx); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) seed(ctx context.Context) error {
	sample, err := datasource.NewSample(s.logger)
	if err != nil {
		return err
	}
	list, err := sample.List(ctx)
	if err != nil {
		return err
	}
	s.store.Seed(list)

	hash, err := password.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}
	_, err = s.store.CreateUser(users.RegisterRequest{
		Email:     DemoEmail,
		FirstName: "Demo",
		LastName:  "User",
	}, hash)
	if err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}

	s.logger.Info("Seeded development data", slog.Int("challenges", len(list)), slog.String("demo_user", DemoEmail))
	return nil
}

// announcePresence tells friends about a user whose online status is shared
func (s *Server) announcePresence(userID string, online bool) {
	privacy, err := s.store.PrivacySettings(userID)
	if err != nil || !privacy.ShowOnlineStatus {
		return
	}
	friends, err := s.store.FriendIDs(userID)
	if err != nil {
		return
	}
	s.publisher.PublishPresence(userID, friends, online)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Store() storage.Storage {
	return s.store
}

func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// Run listens on the configured address until ctx ends
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the hub, the HTTP server and, when an interval is configured,
// the activity simulator until ctx ends or one of them fails
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.hub.Run(gctx)
	})

	g.Go(func() error {
		s.logger.Info("Server started", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		}
		if s.redis != nil {
			s.redis.Close()
		}
		return nil
	})

	if s.cfg.SimulateInterval > 0 {
		sim := NewSimulator(s.store, s.publisher, s.hub, s.cfg.SimulateInterval, s.logger)
		g.Go(func() error {
			sim.Start(gctx)
			return nil
		})
	}

	err := g.Wait()
	s.logger.Info("Server stopped")
	return err
}
