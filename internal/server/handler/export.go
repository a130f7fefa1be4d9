package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

// exportDoc is the shape written to cache/market_data_export.json.
type exportDoc struct {
	GeneratedAt time.Time               `json:"generated_at"`
	RunCount    int                     `json:"run_count"`
	Runs        []domain.AnalysisResult `json:"runs"`
}

// ExportHandler serves the full-dataset export endpoints.
type ExportHandler struct {
	store  domain.RunStore
	path   string
	logger *slog.Logger
}

// NewExportHandler creates an ExportHandler writing its generated file to
// path (typically cache/market_data_export.json).
func NewExportHandler(store domain.RunStore, path string, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{store: store, path: path, logger: logger.With(slog.String("handler", "export"))}
}

func (h *ExportHandler) buildDoc(r *http.Request) (exportDoc, error) {
	summaries, err := h.store.List(r.Context(), domain.ListOpts{Page: 1, PageSize: 10000})
	if err != nil {
		return exportDoc{}, err
	}

	runs := make([]domain.AnalysisResult, 0, len(summaries))
	for _, s := range summaries {
		full, err := h.store.GetFull(r.Context(), s.ID)
		if err != nil {
			continue
		}
		runs = append(runs, full)
	}

	return exportDoc{GeneratedAt: time.Now().UTC(), RunCount: len(runs), Runs: runs}, nil
}

// Export handles GET /api/export: regenerates cache/market_data_export.json
// from the persisted runs (the 10,000 most recent; a run whose payload
// cannot be read is skipped) and returns the full document.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.buildDoc(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.writeFile(doc); err != nil {
		h.logger.ErrorContext(r.Context(), "export: write file failed", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, doc)
}

// File handles GET /api/export/file: serves the last-generated export file
// directly, regenerating it first if it has never been written.
func (h *ExportHandler) File(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(h.path); os.IsNotExist(err) {
		doc, err := h.buildDoc(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := h.writeFile(doc); err != nil {
			writeError(w, domain.NewCodedError(domain.KindStorage, err.Error()))
			return
		}
	}
	w.Header().Set("Content-Disposition", `attachment; filename="market_data_export.json"`)
	http.ServeFile(w, r, h.path)
}

// Summary handles GET /api/export/summary: counts and timestamps without the
// full per-run payloads.
func (h *ExportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_count":     stats.RunCount,
		"payload_bytes": stats.PayloadBytes,
		"first_run_at":  stats.FirstRunAt,
		"last_run_at":   stats.LastRunAt,
		"export_path":   h.path,
	})
}

// writeFile persists doc via write-temp-then-rename, the same durability
// pattern the catalog cache uses for its own snapshot file.
func (h *ExportHandler) writeFile(doc exportDoc) error {
	dir := filepath.Dir(h.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, h.path)
}
