package domain

// PartBreakdown is one line of a SetDatum's part cost breakdown.
type PartBreakdown struct {
	Slug       string  `json:"slug"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	TotalCost  float64 `json:"total_cost"`
}

// FactorContributions records the individual multiplicative factors that
// produced a CompositeScore, for UI breakdown; see scoring.Score. The ROI
// factor is not among them, so Profit*VolumeLog10*Trend*Liquidity/Volatility
// equals the score divided by the ROI factor, not the score itself. For a
// set scored zero by the volume/margin gate they are still populated.
type FactorContributions struct {
	Profit      float64 `json:"profit"`
	VolumeLog10 float64 `json:"volume_log10"`
	Trend       float64 `json:"trend"`
	Volatility  float64 `json:"volatility"`
	Liquidity   float64 `json:"liquidity"`
}

// SetDatum is the fully scored record for one Set within one Run. Fields
// named Instant/Patient hold both execution-mode variants; the Primary*
// fields mirror whichever variant was active for the run's ExecutionMode.
type SetDatum struct {
	SetSlug string `json:"set_slug"`
	SetName string `json:"set_name"`

	SetPriceInstant float64 `json:"set_price_instant"`
	SetPricePatient float64 `json:"set_price_patient"`
	PartCostInstant float64 `json:"part_cost_instant"`
	PartCostPatient float64 `json:"part_cost_patient"`

	// PrimarySetPrice, PrimaryPartCost, ProfitMargin and ProfitPercentage
	// reflect the run's active ExecutionMode.
	PrimarySetPrice   float64 `json:"primary_set_price"`
	PrimaryPartCost   float64 `json:"primary_part_cost"`
	ProfitMargin      float64 `json:"profit_margin"`
	ProfitPercentage  float64 `json:"profit_percentage"`

	PartBreakdown []PartBreakdown `json:"part_breakdown"`

	Volume48h          int     `json:"volume_48h"`
	BidAskRatio        float64 `json:"bid_ask_ratio"`
	SellCompetition    int     `json:"sell_competition"`
	LiquidityVelocity  float64 `json:"liquidity_velocity"`
	LiquidityMultiplier float64 `json:"liquidity_multiplier"`

	TrendSlope      float64        `json:"trend_slope"`
	TrendMultiplier float64        `json:"trend_multiplier"`
	TrendDirection  TrendDirection `json:"trend_direction"`

	Volatility        float64   `json:"volatility"`
	VolatilityPenalty float64   `json:"volatility_penalty"`
	RiskLevel         RiskLevel `json:"risk_level"`

	Contributions FactorContributions `json:"contributions"`
	CompositeScore float64            `json:"composite_score"`

	// HasPrice is false when either the set or a required part had no
	// eligible order; such sets are retained with a zeroed score.
	HasPrice bool `json:"has_price"`
	// Note carries an internal diagnostic for per-set fetch/parse failures.
	// It never aborts the run; empty when nothing went wrong.
	Note string `json:"note,omitempty"`
}
