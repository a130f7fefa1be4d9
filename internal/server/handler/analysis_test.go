package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

func TestAnalysisHandler_Get_ReturnsLatest(t *testing.T) {
	store := seededStore()
	h := NewAnalysisHandler(newTestOrchestrator(t, store), store, domain.StrategyBalanced, domain.ExecutionInstant, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/analysis", nil)
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var got domain.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestAnalysisHandler_Trigger_RejectsUnknownStrategy(t *testing.T) {
	store := seededStore()
	h := NewAnalysisHandler(newTestOrchestrator(t, store), store, domain.StrategyBalanced, domain.ExecutionInstant, testLogger())

	body := bytes.NewBufferString(`{"strategy":"not_a_strategy"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	rec := httptest.NewRecorder()

	h.Trigger(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 (KindInvariant maps to internal error)", rec.Code)
	}
}

func TestAnalysisHandler_Status(t *testing.T) {
	store := seededStore()
	h := NewAnalysisHandler(newTestOrchestrator(t, store), store, domain.StrategyBalanced, domain.ExecutionInstant, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/status", nil)
	rec := httptest.NewRecorder()

	h.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got domain.Progress
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != domain.StatusIdle {
		t.Fatalf("got %+v, want idle", got)
	}
}

func TestAnalysisHandler_Rescore(t *testing.T) {
	store := seededStore()
	h := NewAnalysisHandler(newTestOrchestrator(t, store), store, domain.StrategyBalanced, domain.ExecutionInstant, testLogger())

	body := bytes.NewBufferString(`{"strategy":"aggressive","execution_mode":"instant"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/analysis/rescore", body)
	rec := httptest.NewRecorder()

	h.Rescore(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var got domain.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Strategy != domain.StrategyAggressive {
		t.Fatalf("got %+v", got)
	}
}

func TestAnalysisHandler_Strategies(t *testing.T) {
	store := seededStore()
	h := NewAnalysisHandler(newTestOrchestrator(t, store), store, domain.StrategyBalanced, domain.ExecutionInstant, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/strategies", nil)
	rec := httptest.NewRecorder()

	h.Strategies(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []domain.StrategyProfile
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d profiles, want 3", len(got))
	}
}
