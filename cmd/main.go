package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nn-client/config"
	"nn-client/internal/container"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fatal(slog.Default(), "failed to load config", err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Собираем сессию: камера, соединение, наблюдатели
	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "failed to start session", err)
	}
	c.Start(ctx)

	c.Logger.Info("client is running", "server", cfg.Target(), "headless", cfg.Headless)
	runErr := c.Run(ctx)
	if err := c.Close(); err != nil {
		c.Logger.Warn("close recorder", "error", err)
	}
	if runErr != nil {
		fatal(c.Logger, "session failed", runErr)
	}
	c.Logger.Info("client stopped", "stats", c.Loop.Stats())
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
