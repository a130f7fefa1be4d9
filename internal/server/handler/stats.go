package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/catalog"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/orchestrator"
)

// StatsHandler serves the store counters and health-check endpoints.
type StatsHandler struct {
	store   domain.RunStore
	catalog *catalog.Cache
	orch    *orchestrator.Orchestrator
	logger  *slog.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(store domain.RunStore, cat *catalog.Cache, orch *orchestrator.Orchestrator, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{store: store, catalog: cat, orch: orch, logger: logger.With(slog.String("handler", "stats"))}
}

// Stats handles GET /api/stats.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Health handles GET /api/stats/health: a liveness check that reports store
// reachability, catalog snapshot age, and the orchestrator's run state.
func (h *StatsHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":              "ok",
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
		"orchestrator_status": h.orch.Status().Status,
	}

	if age, ok := h.catalog.Age(); ok {
		body["catalog_age_seconds"] = age.Seconds()
	} else {
		body["catalog_age_seconds"] = nil
	}

	if _, err := h.store.Stats(r.Context()); err != nil {
		body["status"] = "degraded"
		body["store_error"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	writeJSON(w, http.StatusOK, body)
}
