package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	client, err := New(ctx, ClientConfig{Path: filepath.Join(t.TempDir(), "runs.sqlite")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := client.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return NewStore(client)
}

func sampleRun() domain.Run {
	return domain.Run{
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Strategy:       domain.StrategyBalanced,
		ExecutionMode:  domain.ExecutionInstant,
		TotalSets:      1,
		ProfitableSets: 1,
		SetData: []domain.SetDatum{{
			SetSlug:         "volt_prime_set",
			SetName:         "Volt Prime Set",
			HasPrice:        true,
			SetPriceInstant: 50,
			PartCostInstant: 10,
			ProfitMargin:    40,
			CompositeScore:  12.5,
		}},
		Summaries: []domain.RunSetSummary{{
			SetSlug:      "volt_prime_set",
			SetName:      "Volt Prime Set",
			ProfitMargin: 40,
			LowestPrice:  50,
		}},
	}
}

func TestStore_AppendAndGetFull(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := sampleRun()
	runID, err := store.Append(ctx, run)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if runID != 1 {
		t.Fatalf("runID = %d, want 1", runID)
	}

	result, err := store.GetFull(ctx, runID)
	if err != nil {
		t.Fatalf("GetFull: %v", err)
	}
	if result.TotalSets != 1 || result.ProfitableSets != 1 {
		t.Errorf("got totals (%d, %d), want (1, 1)", result.TotalSets, result.ProfitableSets)
	}
	if len(result.SetData) != 1 || result.SetData[0].SetSlug != "volt_prime_set" {
		t.Fatalf("unexpected SetData: %+v", result.SetData)
	}
	if result.SetData[0].CompositeScore != 12.5 {
		t.Errorf("CompositeScore = %v, want 12.5", result.SetData[0].CompositeScore)
	}
}

func TestStore_AppendAssignsStrictlyMonotonicIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id1, err := store.Append(ctx, sampleRun())
	if err != nil {
		t.Fatalf("Append 1: %v", err)
	}
	id2, err := store.Append(ctx, sampleRun())
	if err != nil {
		t.Fatalf("Append 2: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("id2 (%d) must be strictly greater than id1 (%d)", id2, id1)
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get(context.Background(), 999); err == nil {
		t.Fatal("expected an error for a missing run")
	}
}

func TestStore_List_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := sampleRun()
		run.CreatedAt = run.CreatedAt.Add(time.Duration(i) * time.Hour)
		if _, err := store.Append(ctx, run); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	summaries, err := store.List(ctx, domain.ListOpts{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("got %d summaries, want 3", len(summaries))
	}
	if summaries[0].ID < summaries[1].ID || summaries[1].ID < summaries[2].ID {
		t.Errorf("summaries not newest-first: %+v", summaries)
	}
}

func TestStore_Latest_EmptyStoreReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Latest(context.Background()); err == nil {
		t.Fatal("expected an error for an empty store")
	}
}

func TestStore_Stats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, sampleRun()); err != nil {
		t.Fatalf("Append: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.RunCount != 1 {
		t.Errorf("RunCount = %d, want 1", stats.RunCount)
	}
	if stats.PayloadBytes <= 0 {
		t.Error("expected a nonzero payload byte count")
	}
	if stats.FirstRunAt == nil || stats.LastRunAt == nil {
		t.Error("expected both first and last run timestamps to be set")
	}
}

func TestStore_Get_IncludesRunSets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.Append(ctx, sampleRun())
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	detail, err := store.Get(ctx, runID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(detail.Sets) != 1 {
		t.Fatalf("got %d run_sets rows, want 1", len(detail.Sets))
	}
	if detail.Sets[0].ProfitMargin != 40 {
		t.Errorf("ProfitMargin = %v, want 40", detail.Sets[0].ProfitMargin)
	}
}
