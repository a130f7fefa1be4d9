// Package profit turns resolved set and part prices into part_cost and
// profit_margin for both execution modes.
package profit

import "github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"

// PartPrice is one part's resolved unit price, alongside its catalog
// quantity, for both execution modes.
type PartPrice struct {
	Slug          string
	Name          string
	Quantity      int
	InstantPrice  float64
	InstantHasPrice bool
	PatientPrice  float64
	PatientHasPrice bool
}

// Result is both execution-mode variants of set price, part cost, and
// profit margin, plus the part-by-part cost breakdown for whichever mode
// is primary.
type Result struct {
	SetPriceInstant float64
	SetPricePatient float64
	PartCostInstant float64
	PartCostPatient float64

	ProfitMarginInstant float64
	ProfitMarginPatient float64

	// HasPrice is false if either the set price or any part price was
	// unavailable for the active mode.
	HasPrice bool

	Breakdown []domain.PartBreakdown
}

// Calculate computes both instant and patient variants of part_cost and
// profit_margin given the set's resolved prices and its parts' resolved
// prices, and builds the part breakdown for the active mode.
func Calculate(setPriceInstant float64, setHasInstant bool, setPricePatient float64, setHasPatient bool, parts []PartPrice, mode domain.ExecutionMode) Result {
	instantCost, instantOK := 0.0, true
	patientCost, patientOK := 0.0, true

	for _, p := range parts {
		if !p.InstantHasPrice {
			instantOK = false
		}
		instantCost += p.InstantPrice * float64(p.Quantity)

		if !p.PatientHasPrice {
			patientOK = false
		}
		patientCost += p.PatientPrice * float64(p.Quantity)
	}

	res := Result{
		SetPriceInstant: setPriceInstant,
		SetPricePatient: setPricePatient,
		PartCostInstant: instantCost,
		PartCostPatient: patientCost,
	}

	if setHasInstant && instantOK {
		res.ProfitMarginInstant = setPriceInstant - instantCost
	}
	if setHasPatient && patientOK {
		res.ProfitMarginPatient = setPricePatient - patientCost
	}

	res.HasPrice = hasPriceForMode(mode, setHasInstant, instantOK, setHasPatient, patientOK)

	if res.HasPrice {
		res.Breakdown = breakdown(parts, mode)
	}

	return res
}

func hasPriceForMode(mode domain.ExecutionMode, setInstantOK, partsInstantOK, setPatientOK, partsPatientOK bool) bool {
	if mode == domain.ExecutionPatient {
		return setPatientOK && partsPatientOK
	}
	return setInstantOK && partsInstantOK
}

func breakdown(parts []PartPrice, mode domain.ExecutionMode) []domain.PartBreakdown {
	out := make([]domain.PartBreakdown, 0, len(parts))
	for _, p := range parts {
		unit := p.InstantPrice
		if mode == domain.ExecutionPatient {
			unit = p.PatientPrice
		}
		out = append(out, domain.PartBreakdown{
			Slug:      p.Slug,
			Name:      p.Name,
			UnitPrice: unit,
			Quantity:  p.Quantity,
			TotalCost: unit * float64(p.Quantity),
		})
	}
	return out
}

// ProfitPercentage computes profit_margin/part_cost * 100, or 0 when
// part_cost is not positive, to avoid dividing by zero or a negative cost.
func ProfitPercentage(margin, partCost float64) float64 {
	if partCost <= 0 {
		return 0
	}
	return margin / partCost * 100
}

// Primary selects whichever (set price, part cost, margin) triple is active
// for mode.
func Primary(r Result, mode domain.ExecutionMode) (setPrice, partCost, margin float64) {
	if mode == domain.ExecutionPatient {
		return r.SetPricePatient, r.PartCostPatient, r.ProfitMarginPatient
	}
	return r.SetPriceInstant, r.PartCostInstant, r.ProfitMarginInstant
}
