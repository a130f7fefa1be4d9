package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/config"
)

func TestApp_Run_ShutsDownOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Storage.DatabasePath = filepath.Join(dir, "runs.sqlite")
	cfg.Storage.CacheDir = dir
	cfg.Server.Port = 18734 // fixed high port, unlikely to collide in CI

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	a := New(&cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		resp, err := http.Get("http://127.0.0.1:18734/api/stats/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		select {
		case <-deadline:
			t.Fatal("server never became reachable")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on clean shutdown: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	a.Close()
}
