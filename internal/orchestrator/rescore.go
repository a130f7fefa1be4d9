package orchestrator

import (
	"context"
	"fmt"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/analytics"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/profit"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/scoring"
)

// Rescore recomputes a cached run's composite scores under a new strategy
// and/or execution mode using only the liquidity/trend/volatility figures
// and both price variants already captured on each SetDatum; it makes no
// upstream calls.
func (o *Orchestrator) Rescore(ctx context.Context, runID int64, strategy domain.StrategyType, mode domain.ExecutionMode) (domain.AnalysisResult, error) {
	profile, ok := scoring.Profile(strategy)
	if !ok {
		return domain.AnalysisResult{}, fmt.Errorf("orchestrator: rescore: %w", domain.NewCodedError(domain.KindInvariant, "unknown strategy "+string(strategy)))
	}

	cached, err := o.store.GetFull(ctx, runID)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("orchestrator: rescore: %w", err)
	}

	data := make([]domain.SetDatum, len(cached.SetData))
	profitable := 0
	for i, d := range cached.SetData {
		rescored := rescoreOne(d, profile, mode)
		data[i] = rescored
		if rescored.CompositeScore > 0 {
			profitable++
		}
	}
	sortSetData(data)

	return domain.AnalysisResult{
		RunID:          cached.RunID,
		CreatedAt:      cached.CreatedAt,
		Strategy:       strategy,
		ExecutionMode:  mode,
		TotalSets:      len(data),
		ProfitableSets: profitable,
		SetData:        data,
	}, nil
}

func rescoreOne(d domain.SetDatum, profile domain.StrategyProfile, mode domain.ExecutionMode) domain.SetDatum {
	if !d.HasPrice {
		return d
	}

	result := analytics.Result{
		Volume48h:         d.Volume48h,
		BidAskRatio:       d.BidAskRatio,
		SellCompetition:   d.SellCompetition,
		LiquidityVelocity: d.LiquidityVelocity,
		TrendSlope:        d.TrendSlope,
		Volatility:        d.Volatility,
	}
	weighted := analytics.ApplyStrategy(result, profile)

	setPrice, partCost, margin := primaryForMode(d, mode)
	profitPct := profit.ProfitPercentage(margin, partCost)

	score, contrib := scoring.Score(scoring.Input{
		ProfitMargin:     margin,
		ProfitPercentage: profitPct,
		Volume48h:        d.Volume48h,
	}, weighted, profile)

	d.PrimarySetPrice = setPrice
	d.PrimaryPartCost = partCost
	d.ProfitMargin = margin
	d.ProfitPercentage = profitPct
	d.LiquidityMultiplier = weighted.LiquidityMultiplier
	d.TrendMultiplier = weighted.TrendMultiplier
	d.TrendDirection = weighted.TrendDirection
	d.VolatilityPenalty = weighted.VolatilityPenalty
	d.RiskLevel = weighted.RiskLevel
	d.Contributions = contrib
	d.CompositeScore = score
	return d
}

func primaryForMode(d domain.SetDatum, mode domain.ExecutionMode) (setPrice, partCost, margin float64) {
	if mode == domain.ExecutionPatient {
		return d.SetPricePatient, d.PartCostPatient, d.SetPricePatient - d.PartCostPatient
	}
	return d.SetPriceInstant, d.PartCostInstant, d.SetPriceInstant - d.PartCostInstant
}
