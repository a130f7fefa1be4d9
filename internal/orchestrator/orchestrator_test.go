package orchestrator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/catalog"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

type fakeUpstream struct {
	summaries []domain.SetSummary
	sets      map[string]domain.Set
	books     map[string]domain.OrderBook
	stats     map[string]domain.Statistics48h

	calls atomic.Int64
}

// callCount reports how many times any upstream method has been invoked.
func (f *fakeUpstream) callCount() int64 {
	return f.calls.Load()
}

func (f *fakeUpstream) ListSets(ctx context.Context) ([]domain.SetSummary, error) {
	f.calls.Add(1)
	return f.summaries, nil
}

func (f *fakeUpstream) SetParts(ctx context.Context, slug string) (domain.Set, error) {
	f.calls.Add(1)
	return f.sets[slug], nil
}

func (f *fakeUpstream) TopOrders(ctx context.Context, slug string) (domain.OrderBook, error) {
	f.calls.Add(1)
	return f.books[slug], nil
}

func (f *fakeUpstream) Statistics48h(ctx context.Context, slug string) (domain.Statistics48h, error) {
	f.calls.Add(1)
	return f.stats[slug], nil
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		summaries: []domain.SetSummary{{Slug: "volt_prime_set", Name: "Volt Prime Set"}},
		sets: map[string]domain.Set{
			"volt_prime_set": {
				Slug: "volt_prime_set",
				Name: "Volt Prime Set",
				Parts: []domain.Part{
					{Slug: "volt_prime_bp", Name: "Volt Prime Blueprint", Quantity: 1},
				},
			},
		},
		books: map[string]domain.OrderBook{
			"volt_prime_set": {
				SellOrders: []domain.Order{{Price: 50, Online: true}},
				BuyOrders:  []domain.Order{{Price: 45, Online: true}},
			},
			"volt_prime_bp": {
				SellOrders: []domain.Order{{Price: 10, Online: true}},
				BuyOrders:  []domain.Order{{Price: 8, Online: true}},
			},
		},
		stats: map[string]domain.Statistics48h{
			"volt_prime_set": {Points: []domain.StatPoint{
				{Timestamp: time.Now().Add(-48 * time.Hour), Median: 45, Volume: 30},
				{Timestamp: time.Now().Add(-24 * time.Hour), Median: 48, Volume: 40},
				{Timestamp: time.Now(), Median: 50, Volume: 50},
			}},
		},
	}
}

type fakeStore struct {
	mu   sync.Mutex
	runs []domain.Run
}

func (s *fakeStore) Append(ctx context.Context, run domain.Run) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = int64(len(s.runs) + 1)
	s.runs = append(s.runs, run)
	return run.ID, nil
}

func (s *fakeStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.RunSummary, error) {
	return nil, nil
}

func (s *fakeStore) Get(ctx context.Context, runID int64) (domain.RunDetail, error) {
	return domain.RunDetail{}, nil
}

func (s *fakeStore) GetFull(ctx context.Context, runID int64) (domain.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.ID == runID {
			return domain.AnalysisResult{
				RunID: r.ID, CreatedAt: r.CreatedAt, Strategy: r.Strategy,
				ExecutionMode: r.ExecutionMode, TotalSets: r.TotalSets,
				ProfitableSets: r.ProfitableSets, SetData: r.SetData,
			}, nil
		}
	}
	return domain.AnalysisResult{}, domain.ErrNotFound
}

func (s *fakeStore) Latest(ctx context.Context) (domain.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == 0 {
		return domain.AnalysisResult{}, domain.ErrNotFound
	}
	r := s.runs[len(s.runs)-1]
	return domain.AnalysisResult{RunID: r.ID, SetData: r.SetData}, nil
}

func (s *fakeStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	return domain.StoreStats{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func newTestOrchestrator(t *testing.T, up domain.UpstreamClient, store domain.RunStore) *Orchestrator {
	t.Helper()
	dir := t.TempDir()
	cat := catalog.New(up, filepath.Join(dir, "catalog.json"), testLogger())
	return New(cat, up, store, Config{Workers: 2, AnalysisTimeout: 10 * time.Second}, testLogger())
}

func waitForTerminal(t *testing.T, o *Orchestrator) domain.Progress {
	t.Helper()
	ch, cancel := o.Subscribe()
	defer cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				t.Fatal("progress channel closed before a terminal event")
			}
			if p.Status == domain.StatusCompleted || p.Status == domain.StatusError {
				return p
			}
		case <-deadline:
			t.Fatal("timed out waiting for a terminal progress event")
		}
	}
}

func TestOrchestrator_Trigger_CompletesAndPersists(t *testing.T) {
	up := newFakeUpstream()
	store := &fakeStore{}
	o := newTestOrchestrator(t, up, store)

	_, started := o.Trigger(context.Background(), domain.StrategyBalanced, domain.ExecutionInstant, false)
	if !started {
		t.Fatal("expected the first trigger to start a run")
	}

	final := waitForTerminal(t, o)
	if final.Status != domain.StatusCompleted {
		t.Fatalf("status = %v, want completed (error=%v)", final.Status, final.Error)
	}
	if final.RunID == nil {
		t.Fatal("expected a run id on completion")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.runs) != 1 {
		t.Fatalf("got %d persisted runs, want 1", len(store.runs))
	}
	if len(store.runs[0].SetData) != 1 {
		t.Fatalf("got %d set data rows, want 1", len(store.runs[0].SetData))
	}
	if !store.runs[0].SetData[0].HasPrice {
		t.Error("expected the single set to have a resolved price")
	}
}

func TestOrchestrator_Trigger_SingleFlight(t *testing.T) {
	up := newFakeUpstream()
	store := &fakeStore{}
	o := newTestOrchestrator(t, up, store)

	_, started1 := o.Trigger(context.Background(), domain.StrategyBalanced, domain.ExecutionInstant, false)
	_, started2 := o.Trigger(context.Background(), domain.StrategyBalanced, domain.ExecutionInstant, false)
	if !started1 {
		t.Fatal("expected the first trigger to start")
	}
	if started2 {
		t.Fatal("expected the second concurrent trigger to be rejected")
	}

	waitForTerminal(t, o)
}

func TestOrchestrator_Status_ReturnsToIdleAfterCompletion(t *testing.T) {
	up := newFakeUpstream()
	store := &fakeStore{}
	o := newTestOrchestrator(t, up, store)

	o.Trigger(context.Background(), domain.StrategyBalanced, domain.ExecutionInstant, false)
	waitForTerminal(t, o)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.Status().Status == domain.StatusIdle {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("orchestrator did not return to idle, status = %v", o.Status().Status)
}

func TestOrchestrator_Rescore_NoUpstreamCalls(t *testing.T) {
	store := &fakeStore{
		runs: []domain.Run{{
			ID:            1,
			Strategy:      domain.StrategyBalanced,
			ExecutionMode: domain.ExecutionInstant,
			SetData: []domain.SetDatum{{
				SetSlug:         "volt_prime_set",
				HasPrice:        true,
				SetPriceInstant: 50,
				PartCostInstant: 10,
				SetPricePatient: 47,
				PartCostPatient: 9,
				Volume48h:       120,
				BidAskRatio:     1.2,
				TrendSlope:      0.02,
				Volatility:      0.1,
			}},
		}},
	}
	upstream := newFakeUpstream()
	o := newTestOrchestrator(t, upstream, store)

	result, err := o.Rescore(context.Background(), 1, domain.StrategyAggressive, domain.ExecutionPatient)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := upstream.callCount(); got != 0 {
		t.Errorf("upstream call count = %d, want 0: Rescore must recompute purely from the persisted run", got)
	}
	if len(result.SetData) != 1 {
		t.Fatalf("got %d set data rows, want 1", len(result.SetData))
	}
	got := result.SetData[0]
	wantMargin := 47.0 - 9.0
	if got.ProfitMargin != wantMargin {
		t.Errorf("ProfitMargin = %v, want %v", got.ProfitMargin, wantMargin)
	}
	if got.CompositeScore <= 0 {
		t.Errorf("CompositeScore = %v, want > 0 for a profitable, high-volume set", got.CompositeScore)
	}
}
