package domain

// StrategyProfile is a named bundle of factor weights and thresholds
// controlling score aggressiveness. The profile set is closed: see
// scoring.Profiles for the concrete safe_steady / balanced / aggressive
// definitions mandated by the design.
type StrategyProfile struct {
	Type               StrategyType `json:"type"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	VolatilityWeight   float64      `json:"volatility_weight"`
	TrendWeight        float64      `json:"trend_weight"`
	ROIWeight          float64      `json:"roi_weight"`
	MinVolumeThreshold int          `json:"min_volume_threshold"`
}
