package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/config"
)

func TestWire_BuildsEveryDependency(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Storage.DatabasePath = filepath.Join(dir, "runs.sqlite")
	cfg.Storage.CacheDir = dir
	cfg.Server.Port = 0

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	deps, cleanup, err := Wire(context.Background(), &cfg, logger)
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	defer cleanup()

	if deps.Upstream == nil {
		t.Error("Upstream is nil")
	}
	if deps.RateLimiter == nil {
		t.Error("RateLimiter is nil")
	}
	if deps.Catalog == nil {
		t.Error("Catalog is nil")
	}
	if deps.SQLiteClient == nil {
		t.Error("SQLiteClient is nil")
	}
	if deps.Store == nil {
		t.Error("Store is nil")
	}
	if deps.Orchestrator == nil {
		t.Error("Orchestrator is nil")
	}
	if deps.Server == nil {
		t.Error("Server is nil")
	}

	if _, err := deps.Store.Stats(context.Background()); err != nil {
		t.Errorf("store should be usable after Wire: %v", err)
	}
}

func TestWire_FailsOnUnwritableDatabasePath(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.DatabasePath = filepath.Join(string([]byte{0}), "runs.sqlite")
	cfg.Storage.CacheDir = t.TempDir()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	_, _, err := Wire(context.Background(), &cfg, logger)
	if err == nil {
		t.Fatal("expected an error for an invalid database path")
	}
}
