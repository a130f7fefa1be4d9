package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/orchestrator"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/scoring"
)

// heartbeatInterval bounds how long an SSE subscriber can go without a
// frame while a run is in progress.
const heartbeatInterval = 15 * time.Second

// AnalysisHandler serves the analysis trigger, status, progress, and
// rescore endpoints.
type AnalysisHandler struct {
	orch            *orchestrator.Orchestrator
	store           domain.RunStore
	defaultStrategy domain.StrategyType
	defaultMode     domain.ExecutionMode
	logger          *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(orch *orchestrator.Orchestrator, store domain.RunStore, defaultStrategy domain.StrategyType, defaultMode domain.ExecutionMode, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		orch:            orch,
		store:           store,
		defaultStrategy: defaultStrategy,
		defaultMode:     defaultMode,
		logger:          logger.With(slog.String("handler", "analysis")),
	}
}

type analysisRequest struct {
	Strategy      domain.StrategyType `json:"strategy"`
	ExecutionMode domain.ExecutionMode `json:"execution_mode"`
	TestMode      bool                `json:"test_mode"`
}

func (h *AnalysisHandler) paramsFromQuery(r *http.Request) (domain.StrategyType, domain.ExecutionMode, bool, error) {
	q := r.URL.Query()
	strategy := strategyParam(q.Get("strategy"), h.defaultStrategy)
	mode := modeParam(q.Get("execution_mode"), h.defaultMode)
	if !strategy.Valid() {
		return "", "", false, fmt.Errorf("analysis: %w", domain.NewCodedError(domain.KindInvariant, "unknown strategy "+string(strategy)))
	}
	if !mode.Valid() {
		return "", "", false, fmt.Errorf("analysis: %w", domain.NewCodedError(domain.KindInvariant, "unknown execution_mode "+string(mode)))
	}
	return strategy, mode, boolParam(q.Get("test_mode")), nil
}

// Get handles GET /api/analysis: returns the latest persisted run, or runs
// one synchronously when force_refresh is set or no run has ever completed.
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	strategy, mode, testMode, err := h.paramsFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	forceRefresh := boolParam(r.URL.Query().Get("force_refresh"))

	if !forceRefresh {
		result, err := h.store.Latest(r.Context())
		if err == nil {
			writeJSON(w, http.StatusOK, result)
			return
		}
		if !errors.Is(err, domain.ErrNotFound) {
			writeError(w, err)
			return
		}
	}

	result, err := h.orch.Run(r.Context(), strategy, mode, testMode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Trigger handles POST /api/analysis: starts a background run unless one is
// already in flight.
func (h *AnalysisHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var body analysisRequest
	if r.ContentLength != 0 {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	strategy := body.Strategy
	if strategy == "" {
		strategy = strategyParam(r.URL.Query().Get("strategy"), h.defaultStrategy)
	}
	mode := body.ExecutionMode
	if mode == "" {
		mode = modeParam(r.URL.Query().Get("execution_mode"), h.defaultMode)
	}
	testMode := body.TestMode || boolParam(r.URL.Query().Get("test_mode"))

	if !strategy.Valid() {
		writeError(w, fmt.Errorf("analysis: %w", domain.NewCodedError(domain.KindInvariant, "unknown strategy "+string(strategy))))
		return
	}
	if !mode.Valid() {
		writeError(w, fmt.Errorf("analysis: %w", domain.NewCodedError(domain.KindInvariant, "unknown execution_mode "+string(mode))))
		return
	}

	runID, started := h.orch.Trigger(r.Context(), strategy, mode, testMode)
	if started {
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "running", "run_id": runID})
		return
	}
	writeJSON(w, http.StatusConflict, map[string]any{"detail": "analysis already running", "run_id": runID})
}

// Status handles GET /api/analysis/status.
func (h *AnalysisHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Status())
}

// Progress handles GET /api/analysis/progress: an SSE stream of Progress
// snapshots, terminating after the first completed/error event. Each
// subscriber is tagged with a correlation id purely for log tracing; it
// never appears in the wire payload.
func (h *AnalysisHandler) Progress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	subID := uuid.NewString()
	logger := h.logger.With(slog.String("sub_id", subID))
	logger.InfoContext(r.Context(), "sse subscriber connected")
	defer logger.InfoContext(r.Context(), "sse subscriber disconnected")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch, cancel := h.orch.Subscribe()
	defer cancel()

	if err := writeSSE(w, h.orch.Status()); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case p, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSE(w, p); err != nil {
				return
			}
			flusher.Flush()
			if p.Status == domain.StatusCompleted || p.Status == domain.StatusError {
				return
			}
		case <-ticker.C:
			if err := writeSSE(w, h.orch.Status()); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, p domain.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

type rescoreRequest struct {
	Strategy      domain.StrategyType  `json:"strategy"`
	ExecutionMode domain.ExecutionMode `json:"execution_mode"`
}

// Rescore handles POST /api/analysis/rescore: recomputes the latest run's
// scores under a different strategy/mode without any upstream calls.
// Restricted to the latest run for simplicity; the store's GetFull is
// generic over any run ID, so targeting an arbitrary historical run is a
// straightforward extension if it's ever needed.
func (h *AnalysisHandler) Rescore(w http.ResponseWriter, r *http.Request) {
	var body rescoreRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("analysis: rescore: %w", domain.NewCodedError(domain.KindParse, "invalid request body")))
		return
	}
	if body.Strategy == "" {
		body.Strategy = h.defaultStrategy
	}
	if body.ExecutionMode == "" {
		body.ExecutionMode = h.defaultMode
	}
	if !body.Strategy.Valid() {
		writeError(w, fmt.Errorf("analysis: rescore: %w", domain.NewCodedError(domain.KindInvariant, "unknown strategy "+string(body.Strategy))))
		return
	}
	if !body.ExecutionMode.Valid() {
		writeError(w, fmt.Errorf("analysis: rescore: %w", domain.NewCodedError(domain.KindInvariant, "unknown execution_mode "+string(body.ExecutionMode))))
		return
	}

	latest, err := h.store.Latest(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.orch.Rescore(r.Context(), latest.RunID, body.Strategy, body.ExecutionMode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Strategies handles GET /api/analysis/strategies: enumerates the closed set
// of strategy profiles in a stable order.
func (h *AnalysisHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	order := []domain.StrategyType{domain.StrategySafeSteady, domain.StrategyBalanced, domain.StrategyAggressive}
	profiles := make([]domain.StrategyProfile, 0, len(order))
	for _, t := range order {
		if p, ok := scoring.Profile(t); ok {
			profiles = append(profiles, p)
		}
	}
	writeJSON(w, http.StatusOK, profiles)
}
