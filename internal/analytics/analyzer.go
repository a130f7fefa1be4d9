// Package analytics derives volume, bid/ask pressure, sell-side competition,
// velocity, trend slope/direction, and volatility from an OrderBook and
// Statistics48h series, using a least-squares slope and a
// coefficient-of-variation volatility measure.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

// trendEpsilon is the slope magnitude below which the trend is classified
// stable rather than rising/falling.
const trendEpsilon = 0.01

// competitionBand is the fraction above the lowest online sell price within
// which a competing order still counts toward sell-side competition.
const competitionBand = 0.10

// Result holds every liquidity/trend/volatility figure the scoring engine
// and SetDatum need, independent of strategy.
type Result struct {
	Volume48h         int
	BidAskRatio       float64
	SellCompetition   int
	LiquidityVelocity float64

	TrendSlope float64
	Volatility float64
}

// Analyze derives Result from the live order book and the statistics
// series. It performs no strategy-weighted scaling; TrendMultiplier,
// VolatilityPenalty, LiquidityMultiplier, and RiskLevel are computed by
// ApplyStrategy into a Weighted.
func Analyze(book domain.OrderBook, stats domain.Statistics48h) Result {
	return Result{
		Volume48h:         sumVolume(stats.Points),
		BidAskRatio:       bidAskRatio(book),
		SellCompetition:   sellCompetition(book),
		LiquidityVelocity: liquidityVelocity(stats.Points),
		TrendSlope:        trendSlope(stats.Points),
		Volatility:        volatility(stats.Points),
	}
}

// Weighted carries the strategy-weighted derivatives of a Result.
type Weighted struct {
	TrendMultiplier     float64
	TrendDirection      domain.TrendDirection
	VolatilityPenalty   float64
	RiskLevel           domain.RiskLevel
	LiquidityMultiplier float64
}

// ApplyStrategy converts a strategy-independent Result into its
// strategy-weighted derivatives. Only TrendMultiplier and VolatilityPenalty
// depend on the profile; LiquidityMultiplier, TrendDirection and RiskLevel
// use the same fixed formulas and thresholds for every strategy.
func ApplyStrategy(r Result, profile domain.StrategyProfile) Weighted {
	trendMultiplier := 1 + clamp(r.TrendSlope*profile.TrendWeight, -0.5, 0.5)
	volatilityPenalty := 1 + r.Volatility*profile.VolatilityWeight

	return Weighted{
		TrendMultiplier:     trendMultiplier,
		TrendDirection:      trendDirection(r.TrendSlope),
		VolatilityPenalty:   volatilityPenalty,
		RiskLevel:           riskLevel(r.Volatility),
		LiquidityMultiplier: liquidityMultiplier(r.BidAskRatio, r.SellCompetition, r.LiquidityVelocity),
	}
}

func sumVolume(points []domain.StatPoint) int {
	total := 0
	for _, p := range points {
		total += p.Volume
	}
	return total
}

// bidAskRatio is total online buy quantity over total online sell quantity;
// 1.0 when the sell side is empty.
func bidAskRatio(book domain.OrderBook) float64 {
	sellQty := sumQuantity(book.OnlineSellOrders())
	buyQty := sumQuantity(book.OnlineBuyOrders())
	if sellQty == 0 {
		return 1.0
	}
	return float64(buyQty) / float64(sellQty)
}

func sumQuantity(orders []domain.Order) int {
	total := 0
	for _, o := range orders {
		total += o.Quantity
	}
	return total
}

// sellCompetition counts distinct online sell orders priced at or within
// competitionBand of the lowest online sell price.
func sellCompetition(book domain.OrderBook) int {
	online := book.OnlineSellOrders()
	if len(online) == 0 {
		return 0
	}
	lowest := online[0].Price
	for _, o := range online[1:] {
		if o.Price < lowest {
			lowest = o.Price
		}
	}
	threshold := lowest * (1 + competitionBand)
	count := 0
	for _, o := range online {
		if o.Price <= threshold {
			count++
		}
	}
	return count
}

// liquidityVelocity is the ratio of the most recent 24h of volume to the
// prior 24h, split on the series' own latest timestamp so it is independent
// of wall-clock skew between fetch and analysis.
func liquidityVelocity(points []domain.StatPoint) float64 {
	if len(points) == 0 {
		return 1.0
	}
	sorted := sortedByTime(points)
	latest := sorted[len(sorted)-1].Timestamp

	var recent, older int
	for _, p := range sorted {
		age := latest.Sub(p.Timestamp)
		switch {
		case age < 24*time.Hour:
			recent += p.Volume
		case age < 48*time.Hour:
			older += p.Volume
		}
	}
	if older == 0 {
		if recent == 0 {
			return 1.0
		}
		return 2.0 // treat unbounded acceleration as the strongest observable signal
	}
	return float64(recent) / float64(older)
}

// trendSlope is the least-squares slope of the daily median series against
// its sequential index, normalized by the mean price so it is comparable
// across items at different price levels.
func trendSlope(points []domain.StatPoint) float64 {
	sorted := sortedByTime(points)
	n := len(sorted)
	if n < 2 {
		return 0
	}

	var sumX, sumY float64
	for i, p := range sorted {
		sumX += float64(i)
		sumY += p.Median
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)
	if meanY == 0 {
		return 0
	}

	var num, den float64
	for i, p := range sorted {
		dx := float64(i) - meanX
		num += dx * (p.Median - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return (num / den) / meanY
}

// volatility is the coefficient of variation (σ/μ) of the daily median
// series, 0 if the series is too short or the mean is 0.
func volatility(points []domain.StatPoint) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Median
	}
	mean := sum / float64(n)
	if mean == 0 {
		return 0
	}

	var sumSq float64
	for _, p := range points {
		d := p.Median - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(n-1))
	return stddev / mean
}

func trendDirection(slope float64) domain.TrendDirection {
	switch {
	case slope > trendEpsilon:
		return domain.TrendRising
	case slope < -trendEpsilon:
		return domain.TrendFalling
	default:
		return domain.TrendStable
	}
}

func riskLevel(vol float64) domain.RiskLevel {
	switch {
	case vol < 0.15:
		return domain.RiskLow
	case vol < 0.35:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}

// liquidityMultiplier blends three liquidity signals (buy/sell pressure,
// inverse sell-side crowding, and volume acceleration) via their geometric
// mean, then clamps the result to [0.5, 1.5].
func liquidityMultiplier(bidAsk float64, competition int, velocity float64) float64 {
	pressure := clamp(bidAsk, 0.2, 3.0)
	crowding := 1.0 / (1.0 + float64(competition)*0.1)
	accel := clamp(velocity, 0.2, 3.0)

	blend := math.Cbrt(pressure * crowding * accel)
	return clamp(blend, 0.5, 1.5)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sortedByTime(points []domain.StatPoint) []domain.StatPoint {
	sorted := make([]domain.StatPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
	return sorted
}
