package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/princekumarofficial/challenge-tracker/internal/config"
	"github.com/princekumarofficial/challenge-tracker/internal/devserver"
	"github.com/princekumarofficial/challenge-tracker/internal/logger"
)

func main() {
	// load config
	cfg := config.MustLoad()
	appLogger := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := devserver.New(ctx, cfg, appLogger)
	if err != nil {
		log.Fatal("Failed to initialize dev server:", err)
	}

	appLogger.Info("Demo account ready",
		slog.String("email", devserver.DemoEmail),
		slog.String("password", devserver.DemoPassword))

	if err := server.Run(ctx); err != nil {
		log.Fatalf("server error: %s", err)
	}
}
