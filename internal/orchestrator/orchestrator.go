// Package orchestrator implements the analysis orchestrator: the
// idle/running/completed/error state machine that fans an analysis run out
// across a bounded worker pool, scores every set, persists the result, and
// streams progress to subscribers. Exactly one run may be in flight at a
// time; a second trigger while one is running is rejected rather than
// queued.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/analytics"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/catalog"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/pricing"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/profit"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/scoring"
)

// testModeSetLimit caps the number of sets processed when a caller requests
// test_mode.
const testModeSetLimit = 10

// Config configures Orchestrator.
type Config struct {
	Workers         int
	AnalysisTimeout time.Duration
	DefaultStrategy domain.StrategyType
	DefaultMode     domain.ExecutionMode
}

// Orchestrator owns the single-flight run state machine.
type Orchestrator struct {
	catalog  *catalog.Cache
	upstream domain.UpstreamClient
	store    domain.RunStore
	logger   *slog.Logger

	workers         int
	analysisTimeout time.Duration
	defaultStrategy domain.StrategyType
	defaultMode     domain.ExecutionMode

	bus *progressBus

	mu      sync.Mutex
	status  domain.RunStatus
	runID   *int64
	pct     int
	message string
	errMsg  string
	cancel  context.CancelFunc
}

// New creates an Orchestrator in the idle state.
func New(cat *catalog.Cache, upstream domain.UpstreamClient, store domain.RunStore, cfg Config, logger *slog.Logger) *Orchestrator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	timeout := cfg.AnalysisTimeout
	if timeout <= 0 {
		timeout = 600 * time.Second
	}
	strategy := cfg.DefaultStrategy
	if !strategy.Valid() {
		strategy = domain.StrategyBalanced
	}
	mode := cfg.DefaultMode
	if !mode.Valid() {
		mode = domain.ExecutionInstant
	}

	return &Orchestrator{
		catalog:         cat,
		upstream:        upstream,
		store:           store,
		logger:          logger.With(slog.String("component", "orchestrator")),
		workers:         workers,
		analysisTimeout: timeout,
		defaultStrategy: strategy,
		defaultMode:     mode,
		bus:             newProgressBus(),
		status:          domain.StatusIdle,
	}
}

// Status returns a snapshot of the current run state.
func (o *Orchestrator) Status() domain.Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() domain.Progress {
	p := domain.Progress{Status: o.status}
	if o.status == domain.StatusRunning || o.status == domain.StatusCompleted || o.status == domain.StatusError {
		pct := o.pct
		p.Progress = domain.IntPtr(pct)
	}
	if o.message != "" {
		p.Message = domain.StrPtr(o.message)
	}
	if o.runID != nil {
		p.RunID = domain.Int64Ptr(*o.runID)
	}
	if o.errMsg != "" {
		p.Error = domain.StrPtr(o.errMsg)
	}
	return p
}

// Subscribe registers a progress listener; cancel must be called when the
// caller (typically an SSE handler) disconnects.
func (o *Orchestrator) Subscribe() (<-chan domain.Progress, func()) {
	return o.bus.Subscribe()
}

// Trigger starts a background run unless one is already in flight, in which
// case it returns started=false. A run has no ID until it is persisted, so
// the returned inFlightRunID is always 0. The run continues after Trigger
// returns; use Subscribe or Status to observe it.
func (o *Orchestrator) Trigger(parent context.Context, strategy domain.StrategyType, mode domain.ExecutionMode, testMode bool) (inFlightRunID int64, started bool) {
	o.mu.Lock()
	if o.status == domain.StatusRunning {
		id := int64(0)
		if o.runID != nil {
			id = *o.runID
		}
		o.mu.Unlock()
		return id, false
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), o.analysisTimeout)
	o.cancel = cancel
	o.status = domain.StatusRunning
	o.pct = 0
	o.message = "starting"
	o.errMsg = ""
	o.runID = nil
	o.mu.Unlock()

	o.bus.Publish(o.Status())

	go o.run(ctx, strategy, mode, testMode)

	return 0, true
}

// Run synchronously executes one analysis and returns its result, for
// callers that want to run inline when no cached result is available. It
// still honors the single-flight rule: it starts the run through Trigger,
// and if a run is already in progress, it waits for that run's terminal
// state rather than starting a second one.
func (o *Orchestrator) Run(ctx context.Context, strategy domain.StrategyType, mode domain.ExecutionMode, testMode bool) (domain.AnalysisResult, error) {
	ch, unsubscribe := o.Subscribe()
	defer unsubscribe()
	o.Trigger(ctx, strategy, mode, testMode)
	for {
		select {
		case <-ctx.Done():
			return domain.AnalysisResult{}, ctx.Err()
		case p, ok := <-ch:
			if !ok {
				return domain.AnalysisResult{}, fmt.Errorf("orchestrator: run: %w", domain.ErrCancelled)
			}
			if p.Status == domain.StatusCompleted && p.RunID != nil {
				return o.store.GetFull(ctx, *p.RunID)
			}
			if p.Status == domain.StatusError {
				detail := "in-flight run failed"
				if p.Error != nil {
					detail = *p.Error
				}
				return domain.AnalysisResult{}, fmt.Errorf("orchestrator: run: %w", domain.NewCodedError(domain.KindInvariant, detail))
			}
		}
	}
}

// RunLoop triggers a run every interval until ctx is cancelled, respecting
// the same single-flight rule as Trigger. App.Run starts it in its own
// goroutine when a poll interval is configured.
func (o *Orchestrator) RunLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.Trigger(ctx, o.defaultStrategy, o.defaultMode, false)
		}
	}
}

func (o *Orchestrator) run(ctx context.Context, strategy domain.StrategyType, mode domain.ExecutionMode, testMode bool) {
	result, err := o.runOnce(ctx, strategy, mode, testMode)

	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	if err != nil {
		o.status = domain.StatusError
		o.errMsg = err.Error()
		o.message = "analysis failed"
	} else {
		o.status = domain.StatusCompleted
		o.pct = 100
		o.message = "completed"
		o.runID = domain.Int64Ptr(result.RunID)
	}
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	o.bus.Publish(snapshot)
	o.bus.CloseAll()

	o.mu.Lock()
	o.status = domain.StatusIdle
	o.mu.Unlock()
}

// runOnce performs the full catalog-refresh/fetch/score/persist flow,
// independent of whether it was triggered in the background or run inline.
func (o *Orchestrator) runOnce(ctx context.Context, strategy domain.StrategyType, mode domain.ExecutionMode, testMode bool) (domain.AnalysisResult, error) {
	profile, ok := scoring.Profile(strategy)
	if !ok {
		return domain.AnalysisResult{}, fmt.Errorf("orchestrator: run: %w", domain.NewCodedError(domain.KindInvariant, "unknown strategy "+string(strategy)))
	}

	o.setProgress(5, "refreshing catalog")
	cat, err := o.catalog.RefreshIfStale(ctx)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("orchestrator: refresh catalog: %w", err)
	}

	sets := cat.Sets
	if testMode && len(sets) > testModeSetLimit {
		sets = sets[:testModeSetLimit]
	}

	data, err := o.analyzeSets(ctx, sets, profile, mode)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	sortSetData(data)

	profitable := 0
	for _, d := range data {
		if d.CompositeScore > 0 {
			profitable++
		}
	}

	run := domain.Run{
		CreatedAt:      time.Now().UTC(),
		Strategy:       strategy,
		ExecutionMode:  mode,
		TotalSets:      len(data),
		ProfitableSets: profitable,
		SetData:        data,
		Summaries:      summaries(data),
	}

	runID, err := o.store.Append(ctx, run)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("orchestrator: persist run: %w", err)
	}

	return domain.AnalysisResult{
		RunID:          runID,
		CreatedAt:      run.CreatedAt,
		Strategy:       strategy,
		ExecutionMode:  mode,
		TotalSets:      run.TotalSets,
		ProfitableSets: run.ProfitableSets,
		SetData:        data,
	}, nil
}

// analyzeSets fans work out over a bounded worker pool; each worker
// processes one set end to end. Per-set fetch/parse errors are contained in
// that set's SetDatum and never abort the run.
func (o *Orchestrator) analyzeSets(ctx context.Context, sets []domain.Set, profile domain.StrategyProfile, mode domain.ExecutionMode) ([]domain.SetDatum, error) {
	data := make([]domain.SetDatum, len(sets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	var completed int64
	var progressMu sync.Mutex
	total := len(sets)

	for i, set := range sets {
		i, set := i, set
		g.Go(func() error {
			data[i] = o.analyzeSet(gctx, set, profile, mode)

			progressMu.Lock()
			completed++
			pct := 5 + int(float64(completed)/float64(total)*90)
			progressMu.Unlock()

			o.setProgress(pct, fmt.Sprintf("analyzed %s", set.Slug))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("orchestrator: analyze sets: %w", err)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("orchestrator: analyze sets: %w", domain.NewCodedError(domain.KindCancelled, ctx.Err().Error()))
	}
	return data, nil
}

// analyzeSet fetches and scores one set. Any upstream failure is captured
// into the returned SetDatum rather than propagated.
func (o *Orchestrator) analyzeSet(ctx context.Context, set domain.Set, profile domain.StrategyProfile, mode domain.ExecutionMode) domain.SetDatum {
	datum := domain.SetDatum{SetSlug: set.Slug, SetName: set.Name}

	setBook, err := o.upstream.TopOrders(ctx, set.Slug)
	if err != nil {
		datum.Note = fmt.Sprintf("fetch set orders: %v", err)
		return datum
	}

	stats, err := o.upstream.Statistics48h(ctx, set.Slug)
	if err != nil {
		datum.Note = fmt.Sprintf("fetch statistics: %v", err)
		return datum
	}

	parts := make([]profit.PartPrice, 0, len(set.Parts))
	for _, part := range set.Parts {
		partBook, err := o.upstream.TopOrders(ctx, part.Slug)
		if err != nil {
			datum.Note = fmt.Sprintf("fetch part orders %s: %v", part.Slug, err)
			return datum
		}
		instantPrice, instantOK := pricing.ResolvePartPrice(partBook, domain.ExecutionInstant)
		patientPrice, patientOK := pricing.ResolvePartPrice(partBook, domain.ExecutionPatient)
		parts = append(parts, profit.PartPrice{
			Slug:            part.Slug,
			Name:            part.Name,
			Quantity:        part.Quantity,
			InstantPrice:    instantPrice,
			InstantHasPrice: instantOK,
			PatientPrice:    patientPrice,
			PatientHasPrice: patientOK,
		})
	}

	setInstant, setInstantOK := pricing.ResolveSetPrice(setBook, domain.ExecutionInstant)
	setPatient, setPatientOK := pricing.ResolveSetPrice(setBook, domain.ExecutionPatient)

	pr := profit.Calculate(setInstant, setInstantOK, setPatient, setPatientOK, parts, mode)

	result := analytics.Analyze(setBook, stats)
	weighted := analytics.ApplyStrategy(result, profile)

	primarySetPrice, primaryPartCost, margin := profit.Primary(pr, mode)
	profitPct := profit.ProfitPercentage(margin, primaryPartCost)

	score, contrib := scoring.Score(scoring.Input{
		ProfitMargin:     margin,
		ProfitPercentage: profitPct,
		Volume48h:        result.Volume48h,
	}, weighted, profile)

	datum.SetPriceInstant = pr.SetPriceInstant
	datum.SetPricePatient = pr.SetPricePatient
	datum.PartCostInstant = pr.PartCostInstant
	datum.PartCostPatient = pr.PartCostPatient
	datum.PrimarySetPrice = primarySetPrice
	datum.PrimaryPartCost = primaryPartCost
	datum.ProfitMargin = margin
	datum.ProfitPercentage = profitPct
	datum.PartBreakdown = pr.Breakdown
	datum.Volume48h = result.Volume48h
	datum.BidAskRatio = result.BidAskRatio
	datum.SellCompetition = result.SellCompetition
	datum.LiquidityVelocity = result.LiquidityVelocity
	datum.LiquidityMultiplier = weighted.LiquidityMultiplier
	datum.TrendSlope = result.TrendSlope
	datum.TrendMultiplier = weighted.TrendMultiplier
	datum.TrendDirection = weighted.TrendDirection
	datum.Volatility = result.Volatility
	datum.VolatilityPenalty = weighted.VolatilityPenalty
	datum.RiskLevel = weighted.RiskLevel
	datum.Contributions = contrib
	datum.CompositeScore = score
	datum.HasPrice = pr.HasPrice

	return datum
}

// setProgress updates the current run's percentage and message and
// publishes the new snapshot. Percentage never decreases: a value lower
// than the current one (workers may report out of order) is ignored and
// only the message is updated.
func (o *Orchestrator) setProgress(pct int, message string) {
	o.mu.Lock()
	if pct > o.pct {
		o.pct = pct
	}
	o.message = message
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	o.bus.Publish(snapshot)
}

func sortSetData(data []domain.SetDatum) {
	sort.Slice(data, func(i, j int) bool {
		if data[i].CompositeScore != data[j].CompositeScore {
			return data[i].CompositeScore > data[j].CompositeScore
		}
		if data[i].ProfitMargin != data[j].ProfitMargin {
			return data[i].ProfitMargin > data[j].ProfitMargin
		}
		return data[i].SetSlug < data[j].SetSlug
	})
}

func summaries(data []domain.SetDatum) []domain.RunSetSummary {
	out := make([]domain.RunSetSummary, 0, len(data))
	for _, d := range data {
		out = append(out, domain.RunSetSummary{
			SetSlug:      d.SetSlug,
			SetName:      d.SetName,
			ProfitMargin: d.ProfitMargin,
			LowestPrice:  d.SetPriceInstant,
		})
	}
	return out
}
