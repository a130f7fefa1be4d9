package handler

import (
	"log/slog"
	"net/http"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

// HistoryHandler serves the run history endpoints.
type HistoryHandler struct {
	store  domain.RunStore
	logger *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(store domain.RunStore, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, logger: logger.With(slog.String("handler", "history"))}
}

// List handles GET /api/history: paginated run summaries.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List(r.Context(), parseListOpts(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Detail handles GET /api/history/{id}: the compact run summary + run_sets
// projection.
func (h *HistoryHandler) Detail(w http.ResponseWriter, r *http.Request) {
	runID, err := parseRunID(r)
	if err != nil {
		writeError(w, fmtInvalidID(err))
		return
	}
	detail, err := h.store.Get(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// FullAnalysis handles GET /api/history/{id}/analysis: the full scored
// payload for one run.
func (h *HistoryHandler) FullAnalysis(w http.ResponseWriter, r *http.Request) {
	runID, err := parseRunID(r)
	if err != nil {
		writeError(w, fmtInvalidID(err))
		return
	}
	result, err := h.store.GetFull(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func fmtInvalidID(err error) error {
	return domain.NewCodedError(domain.KindNotFound, "invalid run id: "+err.Error())
}
