// Package server is the HTTP surface: route registration on a method-
// pattern mux, a logging+CORS middleware chain, and graceful start/shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/server/handler"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates every HTTP handler the server registers.
type Handlers struct {
	Analysis *handler.AnalysisHandler
	History  *handler.HistoryHandler
	Sets     *handler.SetsHandler
	Stats    *handler.StatsHandler
	Export   *handler.ExportHandler
}

// Server is the analyzer's HTTP API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with every route registered on the mux and the
// logging/CORS middleware chain applied.
func New(cfg Config, h Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/analysis", h.Analysis.Get)
	mux.HandleFunc("POST /api/analysis", h.Analysis.Trigger)
	mux.HandleFunc("GET /api/analysis/status", h.Analysis.Status)
	mux.HandleFunc("GET /api/analysis/progress", h.Analysis.Progress)
	mux.HandleFunc("POST /api/analysis/rescore", h.Analysis.Rescore)
	mux.HandleFunc("GET /api/analysis/strategies", h.Analysis.Strategies)

	mux.HandleFunc("GET /api/history", h.History.List)
	mux.HandleFunc("GET /api/history/{id}", h.History.Detail)
	mux.HandleFunc("GET /api/history/{id}/analysis", h.History.FullAnalysis)

	mux.HandleFunc("GET /api/sets", h.Sets.List)
	mux.HandleFunc("GET /api/sets/{slug}", h.Sets.Detail)
	mux.HandleFunc("GET /api/sets/{slug}/history", h.Sets.History)

	mux.HandleFunc("GET /api/stats", h.Stats.Stats)
	mux.HandleFunc("GET /api/stats/health", h.Stats.Health)

	mux.HandleFunc("GET /api/export", h.Export.Export)
	mux.HandleFunc("GET /api/export/file", h.Export.File)
	mux.HandleFunc("GET /api/export/summary", h.Export.Summary)

	var chain http.Handler = mux
	chain = middleware.Logging(logger)(chain)
	chain = middleware.CORS(cfg.CORSOrigins)(chain)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the SSE progress stream must not be cut off by a fixed write deadline
		IdleTimeout:  120 * time.Second,
	}

	return &Server{httpServer: srv, logger: logger.With(slog.String("component", "server"))}
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or fails.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
