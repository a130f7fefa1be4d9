package analytics

import (
	"testing"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

func balancedProfile() domain.StrategyProfile {
	return domain.StrategyProfile{
		Type:               domain.StrategyBalanced,
		VolatilityWeight:   1.0,
		TrendWeight:        1.0,
		ROIWeight:          1.0,
		MinVolumeThreshold: 10,
	}
}

func TestAnalyze_BidAskRatio(t *testing.T) {
	book := domain.OrderBook{
		SellOrders: []domain.Order{{Price: 10, Quantity: 2, Online: true}, {Price: 12, Quantity: 3, Online: false}},
		BuyOrders:  []domain.Order{{Price: 8, Quantity: 5, Online: true}},
	}
	r := Analyze(book, domain.Statistics48h{})
	if r.BidAskRatio != 2.5 {
		t.Errorf("BidAskRatio = %v, want 2.5", r.BidAskRatio)
	}
}

func TestAnalyze_BidAskRatio_EmptySellSideDefaultsToOne(t *testing.T) {
	book := domain.OrderBook{BuyOrders: []domain.Order{{Price: 8, Quantity: 5, Online: true}}}
	r := Analyze(book, domain.Statistics48h{})
	if r.BidAskRatio != 1.0 {
		t.Errorf("BidAskRatio = %v, want 1.0", r.BidAskRatio)
	}
}

func TestAnalyze_SellCompetition(t *testing.T) {
	book := domain.OrderBook{
		SellOrders: []domain.Order{
			{Price: 100, Online: true}, // within 10% of 100
			{Price: 108, Online: true}, // within 10% of 100
			{Price: 130, Online: true}, // outside 10% band
			{Price: 95, Online: false}, // offline, ignored
		},
	}
	r := Analyze(book, domain.Statistics48h{})
	if r.SellCompetition != 2 {
		t.Errorf("SellCompetition = %d, want 2", r.SellCompetition)
	}
}

func points(hoursAgo []int, medians []float64, volumes []int) []domain.StatPoint {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	out := make([]domain.StatPoint, len(hoursAgo))
	for i := range hoursAgo {
		out[i] = domain.StatPoint{
			Timestamp: now.Add(-time.Duration(hoursAgo[i]) * time.Hour),
			Median:    medians[i],
			Volume:    volumes[i],
		}
	}
	return out
}

func TestAnalyze_Volume48hSumsAllPoints(t *testing.T) {
	stats := domain.Statistics48h{Points: points([]int{40, 20, 2}, []float64{10, 10, 10}, []int{5, 7, 3})}
	r := Analyze(domain.OrderBook{}, stats)
	if r.Volume48h != 15 {
		t.Errorf("Volume48h = %d, want 15", r.Volume48h)
	}
}

func TestAnalyze_LiquidityVelocity_AcceleratingVolume(t *testing.T) {
	// older 24h (hours 24-48 ago) totals 10, recent 24h totals 30 -> velocity 3
	stats := domain.Statistics48h{Points: points([]int{36, 12}, []float64{10, 10}, []int{10, 30})}
	r := Analyze(domain.OrderBook{}, stats)
	if r.LiquidityVelocity != 3 {
		t.Errorf("LiquidityVelocity = %v, want 3", r.LiquidityVelocity)
	}
}

func TestAnalyze_TrendSlope_RisingSeries(t *testing.T) {
	stats := domain.Statistics48h{Points: points([]int{48, 24, 0}, []float64{90, 100, 110}, []int{1, 1, 1})}
	r := Analyze(domain.OrderBook{}, stats)
	if r.TrendSlope <= 0 {
		t.Errorf("TrendSlope = %v, want > 0 for a rising series", r.TrendSlope)
	}
	w := ApplyStrategy(r, balancedProfile())
	if w.TrendDirection != domain.TrendRising {
		t.Errorf("TrendDirection = %v, want rising", w.TrendDirection)
	}
}

func TestAnalyze_TrendSlope_FlatSeriesIsStable(t *testing.T) {
	stats := domain.Statistics48h{Points: points([]int{48, 24, 0}, []float64{100, 100, 100}, []int{1, 1, 1})}
	r := Analyze(domain.OrderBook{}, stats)
	w := ApplyStrategy(r, balancedProfile())
	if w.TrendDirection != domain.TrendStable {
		t.Errorf("TrendDirection = %v, want stable", w.TrendDirection)
	}
	if w.TrendMultiplier != 1.0 {
		t.Errorf("TrendMultiplier = %v, want 1.0", w.TrendMultiplier)
	}
}

func TestApplyStrategy_VolatilityPenaltyAndRiskLevel(t *testing.T) {
	stats := domain.Statistics48h{Points: points([]int{48, 24, 0}, []float64{80, 120, 80}, []int{1, 1, 1})}
	r := Analyze(domain.OrderBook{}, stats)
	if r.Volatility <= 0 {
		t.Fatalf("expected nonzero volatility, got %v", r.Volatility)
	}
	w := ApplyStrategy(r, balancedProfile())
	wantPenalty := 1 + r.Volatility*1.0
	if w.VolatilityPenalty != wantPenalty {
		t.Errorf("VolatilityPenalty = %v, want %v", w.VolatilityPenalty, wantPenalty)
	}
}

func TestApplyStrategy_LiquidityMultiplierClamped(t *testing.T) {
	w := ApplyStrategy(Result{BidAskRatio: 100, SellCompetition: 0, LiquidityVelocity: 100}, balancedProfile())
	if w.LiquidityMultiplier > 1.5 || w.LiquidityMultiplier < 0.5 {
		t.Errorf("LiquidityMultiplier = %v, want within [0.5, 1.5]", w.LiquidityMultiplier)
	}
}

func TestTrendSlope_InsufficientDataIsZero(t *testing.T) {
	r := Analyze(domain.OrderBook{}, domain.Statistics48h{Points: points([]int{0}, []float64{100}, []int{1})})
	if r.TrendSlope != 0 {
		t.Errorf("TrendSlope = %v, want 0 with a single data point", r.TrendSlope)
	}
}
