package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/catalog"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

// SetsHandler serves the catalog views.
type SetsHandler struct {
	catalog *catalog.Cache
	store   domain.RunStore
	logger  *slog.Logger
}

// NewSetsHandler creates a SetsHandler.
func NewSetsHandler(cat *catalog.Cache, store domain.RunStore, logger *slog.Logger) *SetsHandler {
	return &SetsHandler{catalog: cat, store: store, logger: logger.With(slog.String("handler", "sets"))}
}

// List handles GET /api/sets: the last-loaded catalog snapshot, without
// contacting upstream.
func (h *SetsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Current().Sets)
}

// Detail handles GET /api/sets/{slug}: one set's part decomposition.
func (h *SetsHandler) Detail(w http.ResponseWriter, r *http.Request) {
	slug := pathParam(r, "slug")
	set, ok := h.catalog.Current().BySlug(slug)
	if !ok {
		writeError(w, domain.NewCodedError(domain.KindNotFound, "set not found: "+slug))
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// setHistoryPoint is one run's recorded outcome for a single set, projected
// from that run's run_sets rows.
type setHistoryPoint struct {
	RunID        int64     `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
	ProfitMargin float64   `json:"profit_margin"`
	LowestPrice  float64   `json:"lowest_price"`
}

// History handles GET /api/sets/{slug}/history: the recorded outcome for
// one set in each of the 500 most recent runs, oldest first. Older runs
// are not included. Walks the run store's compact
// projections rather than decoding every payload_blob.
func (h *SetsHandler) History(w http.ResponseWriter, r *http.Request) {
	slug := pathParam(r, "slug")

	runs, err := h.store.List(r.Context(), domain.ListOpts{Page: 1, PageSize: 500})
	if err != nil {
		writeError(w, err)
		return
	}

	points := make([]setHistoryPoint, 0, len(runs))
	for _, run := range runs {
		detail, err := h.store.Get(r.Context(), run.ID)
		if err != nil {
			continue
		}
		for _, set := range detail.Sets {
			if set.SetSlug != slug {
				continue
			}
			points = append(points, setHistoryPoint{
				RunID:        run.ID,
				CreatedAt:    run.CreatedAt,
				ProfitMargin: set.ProfitMargin,
				LowestPrice:  set.LowestPrice,
			})
			break
		}
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	writeJSON(w, http.StatusOK, points)
}
