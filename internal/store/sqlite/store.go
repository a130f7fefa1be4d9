package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

// payload is the self-describing shape stored in runs.payload_blob: just the
// per-set scored rows, since every other run column already has its own
// relational column.
type payload struct {
	SetData []domain.SetDatum `json:"set_data"`
}

// Store implements domain.RunStore on top of a Client's sqlite connection.
type Store struct {
	client *Client
}

// NewStore wraps an already-migrated Client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

var _ domain.RunStore = (*Store)(nil)

// Append persists run's runs row and every run_sets row in one transaction,
// so a reader never observes a run with some sets missing.
func (s *Store) Append(ctx context.Context, run domain.Run) (int64, error) {
	blob, err := json.Marshal(payload{SetData: run.SetData})
	if err != nil {
		return 0, fmt.Errorf("sqlite: marshal run payload: %w", domain.NewCodedError(domain.KindParse, err.Error()))
	}

	tx, err := s.client.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: append: begin: %w", domain.NewCodedError(domain.KindStorage, err.Error()))
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (created_at, strategy, execution_mode, total_sets, profitable_sets, payload_blob)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.CreatedAt.UTC().Format(time.RFC3339Nano), string(run.Strategy), string(run.ExecutionMode),
		run.TotalSets, run.ProfitableSets, blob,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: append: insert run: %w", domain.NewCodedError(domain.KindStorage, err.Error()))
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: append: last insert id: %w", domain.NewCodedError(domain.KindStorage, err.Error()))
	}

	for _, set := range run.Summaries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_sets (run_id, set_slug, set_name, profit_margin, lowest_price)
			VALUES (?, ?, ?, ?, ?)`,
			runID, set.SetSlug, set.SetName, set.ProfitMargin, set.LowestPrice,
		); err != nil {
			return 0, fmt.Errorf("sqlite: append: insert run_sets: %w", domain.NewCodedError(domain.KindStorage, err.Error()))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: append: commit: %w", domain.NewCodedError(domain.KindStorage, err.Error()))
	}
	return runID, nil
}

// List returns run summaries newest-first, paginated.
func (s *Store) List(ctx context.Context, opts domain.ListOpts) ([]domain.RunSummary, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	rows, err := s.client.db.QueryContext(ctx, `
		SELECT run_id, created_at, strategy, execution_mode, total_sets, profitable_sets
		FROM runs ORDER BY run_id DESC LIMIT ? OFFSET ?`, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", domain.NewCodedError(domain.KindStorage, err.Error()))
	}
	defer rows.Close()

	var out []domain.RunSummary
	for rows.Next() {
		summary, err := scanRunSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list: scan: %w", domain.NewCodedError(domain.KindStorage, err.Error()))
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list: rows: %w", domain.NewCodedError(domain.KindStorage, err.Error()))
	}
	return out, nil
}

// Get returns the compact detail view for one run.
func (s *Store) Get(ctx context.Context, runID int64) (domain.RunDetail, error) {
	row := s.client.db.QueryRowContext(ctx, `
		SELECT run_id, created_at, strategy, execution_mode, total_sets, profitable_sets
		FROM runs WHERE run_id = ?`, runID)
	summary, err := scanRunSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RunDetail{}, fmt.Errorf("sqlite: get %d: %w", runID, domain.NewCodedError(domain.KindNotFound, "run not found"))
		}
		return domain.RunDetail{}, fmt.Errorf("sqlite: get %d: %w", runID, domain.NewCodedError(domain.KindStorage, err.Error()))
	}

	rows, err := s.client.db.QueryContext(ctx, `
		SELECT set_slug, set_name, profit_margin, lowest_price
		FROM run_sets WHERE run_id = ?`, runID)
	if err != nil {
		return domain.RunDetail{}, fmt.Errorf("sqlite: get %d: sets: %w", runID, domain.NewCodedError(domain.KindStorage, err.Error()))
	}
	defer rows.Close()

	var sets []domain.RunSetSummary
	for rows.Next() {
		var set domain.RunSetSummary
		if err := rows.Scan(&set.SetSlug, &set.SetName, &set.ProfitMargin, &set.LowestPrice); err != nil {
			return domain.RunDetail{}, fmt.Errorf("sqlite: get %d: scan set: %w", runID, domain.NewCodedError(domain.KindStorage, err.Error()))
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return domain.RunDetail{}, fmt.Errorf("sqlite: get %d: rows: %w", runID, domain.NewCodedError(domain.KindStorage, err.Error()))
	}

	return domain.RunDetail{RunSummary: summary, Sets: sets}, nil
}

// GetFull decodes and returns the full scored payload for one run.
func (s *Store) GetFull(ctx context.Context, runID int64) (domain.AnalysisResult, error) {
	var createdAtStr, strategy, mode string
	var totalSets, profitableSets int
	var blob []byte

	err := s.client.db.QueryRowContext(ctx, `
		SELECT created_at, strategy, execution_mode, total_sets, profitable_sets, payload_blob
		FROM runs WHERE run_id = ?`, runID,
	).Scan(&createdAtStr, &strategy, &mode, &totalSets, &profitableSets, &blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AnalysisResult{}, fmt.Errorf("sqlite: get_full %d: %w", runID, domain.NewCodedError(domain.KindNotFound, "run not found"))
		}
		return domain.AnalysisResult{}, fmt.Errorf("sqlite: get_full %d: %w", runID, domain.NewCodedError(domain.KindStorage, err.Error()))
	}

	return decodeAnalysisResult(runID, createdAtStr, strategy, mode, totalSets, profitableSets, blob)
}

// Latest returns the most recently appended run's full payload.
func (s *Store) Latest(ctx context.Context) (domain.AnalysisResult, error) {
	var runID int64
	var createdAtStr, strategy, mode string
	var totalSets, profitableSets int
	var blob []byte

	err := s.client.db.QueryRowContext(ctx, `
		SELECT run_id, created_at, strategy, execution_mode, total_sets, profitable_sets, payload_blob
		FROM runs ORDER BY run_id DESC LIMIT 1`,
	).Scan(&runID, &createdAtStr, &strategy, &mode, &totalSets, &profitableSets, &blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AnalysisResult{}, fmt.Errorf("sqlite: latest: %w", domain.ErrNotFound)
		}
		return domain.AnalysisResult{}, fmt.Errorf("sqlite: latest: %w", domain.NewCodedError(domain.KindStorage, err.Error()))
	}

	return decodeAnalysisResult(runID, createdAtStr, strategy, mode, totalSets, profitableSets, blob)
}

// Stats summarizes the store's contents for /api/stats.
func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats
	var firstStr, lastStr sql.NullString

	err := s.client.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(payload_blob)), 0),
		       MIN(created_at), MAX(created_at)
		FROM runs`,
	).Scan(&stats.RunCount, &stats.PayloadBytes, &firstStr, &lastStr)
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("sqlite: stats: %w", domain.NewCodedError(domain.KindStorage, err.Error()))
	}

	if firstStr.Valid {
		if t, err := time.Parse(time.RFC3339Nano, firstStr.String); err == nil {
			stats.FirstRunAt = &t
		}
	}
	if lastStr.Valid {
		if t, err := time.Parse(time.RFC3339Nano, lastStr.String); err == nil {
			stats.LastRunAt = &t
		}
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunSummary(row rowScanner) (domain.RunSummary, error) {
	var summary domain.RunSummary
	var createdAtStr, strategy, mode string
	if err := row.Scan(&summary.ID, &createdAtStr, &strategy, &mode, &summary.TotalSets, &summary.ProfitableSets); err != nil {
		return domain.RunSummary{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("parse created_at %q: %w", createdAtStr, err)
	}
	summary.CreatedAt = createdAt
	summary.Strategy = domain.StrategyType(strategy)
	summary.ExecutionMode = domain.ExecutionMode(mode)
	return summary, nil
}

func decodeAnalysisResult(runID int64, createdAtStr, strategy, mode string, totalSets, profitableSets int, blob []byte) (domain.AnalysisResult, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("sqlite: parse created_at %q: %w", createdAtStr, domain.NewCodedError(domain.KindParse, err.Error()))
	}

	var p payload
	if err := json.Unmarshal(blob, &p); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("sqlite: unmarshal payload for run %d: %w", runID, domain.NewCodedError(domain.KindParse, err.Error()))
	}

	return domain.AnalysisResult{
		RunID:          runID,
		CreatedAt:      createdAt,
		Strategy:       domain.StrategyType(strategy),
		ExecutionMode:  domain.ExecutionMode(mode),
		TotalSets:      totalSets,
		ProfitableSets: profitableSets,
		SetData:        p.SetData,
	}, nil
}
