// Command analyzer is the Warframe Market set profit analyzer's entry point.
// It loads configuration from the environment, validates it, wires
// dependencies, and serves the HTTP API until an interrupt or term signal
// requests a graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/app"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("analyzer starting",
		slog.Int("port", cfg.Server.Port),
		slog.String("database_path", cfg.Storage.DatabasePath),
	)

	application := app.New(cfg, logger)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("analyzer stopped")
}
