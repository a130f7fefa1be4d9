package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/config"
)

// App owns the wired dependencies for one process lifetime: construction,
// serving, and teardown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from a loaded, validated Config.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Run wires every dependency and serves the HTTP API until ctx is cancelled,
// then shuts the server down gracefully. It returns nil on a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if a.cfg.Analysis.PollIntervalSeconds > 0 {
		interval := time.Duration(a.cfg.Analysis.PollIntervalSeconds) * time.Second
		go func() {
			if err := deps.Orchestrator.RunLoop(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("app: run loop stopped", slog.String("error", err.Error()))
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := deps.Server.Start(); err != nil {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("app: shutdown signal received")
		if err := deps.Server.Shutdown(context.Background()); err != nil {
			a.logger.Error("app: server shutdown error", slog.String("error", err.Error()))
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("app: server: %w", err)
		}
		return nil
	}
}

// Close releases every resource opened by Run, in reverse order. It is
// idempotent.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
