// Package app assembles the analyzer's concrete dependencies from a loaded
// Config and runs the HTTP server to completion: a Dependencies bundle built
// by Wire, torn down by a cleanup closure, and an App wrapper dispatching
// Run/Close.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/catalog"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/config"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/orchestrator"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/ratelimit"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/server"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/server/handler"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/store/sqlite"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/upstream"
)

// Dependencies bundles every concrete component the analyzer needs to run,
// constructed by Wire and torn down by the cleanup function Wire returns.
type Dependencies struct {
	Upstream     *upstream.Client
	RateLimiter  *ratelimit.Limiter
	Catalog      *catalog.Cache
	SQLiteClient *sqlite.Client
	Store        domain.RunStore
	Orchestrator *orchestrator.Orchestrator
	Server       *server.Server
}

// Wire constructs every concrete dependency from cfg and returns them
// together with a cleanup function that releases resources in reverse
// construction order. On error, cleanup is invoked for whatever was already
// opened before Wire returns a non-nil error.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	deps.RateLimiter = ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	deps.Upstream = upstream.New(upstream.Config{
		BaseURL:    cfg.Upstream.BaseURL,
		Timeout:    cfg.Upstream.Timeout,
		MaxRetries: cfg.Upstream.MaxRetries,
		// BackoffBase is left zero so upstream.New applies its own 1s default.
	}, deps.RateLimiter, logger)

	catalogPath := filepath.Join(cfg.Storage.CacheDir, "catalog.json")
	deps.Catalog = catalog.New(deps.Upstream, catalogPath, logger)

	sqliteClient, err := sqlite.New(ctx, sqlite.ClientConfig{Path: cfg.Storage.DatabasePath})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: sqlite: %w", err)
	}
	deps.SQLiteClient = sqliteClient
	closers = append(closers, func() { _ = sqliteClient.Close() })

	if err := sqliteClient.RunMigrations(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: sqlite migrations: %w", err)
	}

	deps.Store = sqlite.NewStore(sqliteClient)

	defaultStrategy := domain.StrategyType(cfg.Analysis.DefaultStrategy)
	defaultMode := domain.ExecutionMode(cfg.Analysis.DefaultMode)

	deps.Orchestrator = orchestrator.New(deps.Catalog, deps.Upstream, deps.Store, orchestrator.Config{
		Workers:         cfg.Analysis.Workers,
		AnalysisTimeout: cfg.Analysis.Timeout,
		DefaultStrategy: defaultStrategy,
		DefaultMode:     defaultMode,
	}, logger)

	exportPath := filepath.Join(cfg.Storage.CacheDir, "market_data_export.json")

	handlers := server.Handlers{
		Analysis: handler.NewAnalysisHandler(deps.Orchestrator, deps.Store, defaultStrategy, defaultMode, logger),
		History:  handler.NewHistoryHandler(deps.Store, logger),
		Sets:     handler.NewSetsHandler(deps.Catalog, deps.Store, logger),
		Stats:    handler.NewStatsHandler(deps.Store, deps.Catalog, deps.Orchestrator, logger),
		Export:   handler.NewExportHandler(deps.Store, exportPath, logger),
	}

	deps.Server = server.New(server.Config{
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, handlers, logger)

	return deps, cleanup, nil
}
