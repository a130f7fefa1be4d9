package domain

import "time"

// RunSetSummary is the compact per-set projection stored in run_sets,
// powering the history list/detail views without decoding the full payload.
type RunSetSummary struct {
	SetSlug      string  `json:"set_slug"`
	SetName      string  `json:"set_name"`
	ProfitMargin float64 `json:"profit_margin"`
	LowestPrice  float64 `json:"lowest_price"`
}

// Run is one end-to-end analysis attempt, persisted in full. SetData is the
// opaque payload; Summaries is the compact projection. Runs are append-only
// and never mutated after Append returns.
type Run struct {
	ID              int64          `json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	Strategy        StrategyType   `json:"strategy"`
	ExecutionMode   ExecutionMode  `json:"execution_mode"`
	TotalSets       int            `json:"total_sets"`
	ProfitableSets  int            `json:"profitable_sets"`
	SetData         []SetDatum     `json:"set_data"`
	Summaries       []RunSetSummary `json:"summaries"`
}

// RunSummary is the lightweight listing shape returned by Store.List, built
// entirely from the runs table row (no payload decode).
type RunSummary struct {
	ID             int64         `json:"id"`
	CreatedAt      time.Time     `json:"created_at"`
	Strategy       StrategyType  `json:"strategy"`
	ExecutionMode  ExecutionMode `json:"execution_mode"`
	TotalSets      int           `json:"total_sets"`
	ProfitableSets int           `json:"profitable_sets"`
}

// RunDetail is a RunSummary enriched with the compact run_sets projection.
type RunDetail struct {
	RunSummary
	Sets []RunSetSummary `json:"sets"`
}

// AnalysisResult is the full scored output of one run (or one rescore),
// independent of whether it has been persisted yet.
type AnalysisResult struct {
	RunID          int64         `json:"run_id"`
	CreatedAt      time.Time     `json:"created_at"`
	Strategy       StrategyType  `json:"strategy"`
	ExecutionMode  ExecutionMode `json:"execution_mode"`
	TotalSets      int           `json:"total_sets"`
	ProfitableSets int           `json:"profitable_sets"`
	SetData        []SetDatum    `json:"set_data"`
}

// StoreStats summarizes the run store's contents for /api/stats.
type StoreStats struct {
	RunCount       int64      `json:"run_count"`
	PayloadBytes   int64      `json:"payload_bytes"`
	FirstRunAt     *time.Time `json:"first_run_at,omitempty"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
}

// ListOpts paginates Store.List.
type ListOpts struct {
	Page     int
	PageSize int
}
