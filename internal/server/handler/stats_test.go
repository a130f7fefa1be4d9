package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/catalog"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/orchestrator"
)

func newTestOrchestrator(t *testing.T, store domain.RunStore) *orchestrator.Orchestrator {
	t.Helper()
	up := &stubUpstream{summaries: nil, sets: map[string]domain.Set{}}
	cat := catalog.New(up, filepath.Join(t.TempDir(), "catalog.json"), testLogger())
	return orchestrator.New(cat, up, store, orchestrator.Config{
		Workers:         2,
		AnalysisTimeout: 5 * time.Second,
		DefaultStrategy: domain.StrategyBalanced,
		DefaultMode:     domain.ExecutionInstant,
	}, testLogger())
}

func TestStatsHandler_Stats(t *testing.T) {
	store := seededStore()
	h := NewStatsHandler(store, seededCatalog(t), newTestOrchestrator(t, store), testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()

	h.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got domain.StoreStats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunCount != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestStatsHandler_Health(t *testing.T) {
	store := seededStore()
	h := NewStatsHandler(store, seededCatalog(t), newTestOrchestrator(t, store), testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/stats/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["status"] != "ok" {
		t.Fatalf("got %+v", got)
	}
}
