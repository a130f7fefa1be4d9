// Package scoring implements the closed set of strategy profiles and the
// composite score formula. The formula is deliberately multiplicative so
// zeroing any single factor zeros the score, rather than being diluted the
// way it would be under a weighted sum.
package scoring

import (
	"math"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/analytics"
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

// Profiles is the closed set of strategy profiles, keyed by StrategyType.
var Profiles = map[domain.StrategyType]domain.StrategyProfile{
	domain.StrategySafeSteady: {
		Type:               domain.StrategySafeSteady,
		Name:               "Safe & Steady",
		Description:        "Favors low-volatility, high-liquidity sets over raw upside.",
		VolatilityWeight:   1.5,
		TrendWeight:        0.5,
		ROIWeight:          0.8,
		MinVolumeThreshold: 50,
	},
	domain.StrategyBalanced: {
		Type:               domain.StrategyBalanced,
		Name:               "Balanced",
		Description:        "Equal weight across ROI, trend, and volatility.",
		VolatilityWeight:   1.0,
		TrendWeight:        1.0,
		ROIWeight:          1.0,
		MinVolumeThreshold: 10,
	},
	domain.StrategyAggressive: {
		Type:               domain.StrategyAggressive,
		Name:               "Aggressive",
		Description:        "Chases ROI and trend momentum, tolerant of volatility and thin volume.",
		VolatilityWeight:   0.6,
		TrendWeight:        1.3,
		ROIWeight:          1.4,
		MinVolumeThreshold: 5,
	},
}

// Profile looks up a strategy profile, reporting false for anything outside
// the closed set.
func Profile(t domain.StrategyType) (domain.StrategyProfile, bool) {
	p, ok := Profiles[t]
	return p, ok
}

// Input is everything the composite score formula needs for one set.
type Input struct {
	ProfitMargin     float64
	ProfitPercentage float64
	Volume48h        int
}

// Score computes the composite score and its factor contributions for one
// set under one strategy profile. Sets below the profile's minimum volume
// threshold, or with a non-positive profit margin, are scored zero but the
// contributions are still populated for transparency.
func Score(in Input, weighted analytics.Weighted, profile domain.StrategyProfile) (float64, domain.FactorContributions) {
	volumeLog10 := math.Log10(math.Max(float64(in.Volume48h), 10))
	base := in.ProfitMargin * volumeLog10
	roiFactor := 1 + (in.ProfitPercentage/100)*profile.ROIWeight

	contributions := domain.FactorContributions{
		Profit:      in.ProfitMargin,
		VolumeLog10: volumeLog10,
		Trend:       weighted.TrendMultiplier,
		Volatility:  weighted.VolatilityPenalty,
		Liquidity:   weighted.LiquidityMultiplier,
	}

	if !Profitable(in, profile) {
		return 0, contributions
	}

	score := base * roiFactor * weighted.TrendMultiplier * weighted.LiquidityMultiplier / weighted.VolatilityPenalty
	return score, contributions
}

// Profitable reports whether in clears the profile's gating thresholds:
// volume at least min_volume and a strictly positive profit margin.
func Profitable(in Input, profile domain.StrategyProfile) bool {
	return in.Volume48h >= profile.MinVolumeThreshold && in.ProfitMargin > 0
}
