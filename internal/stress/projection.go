package stress

import "math"

// ProjectionMonths is the last month of each trajectory (month 0 included)
const ProjectionMonths = 24

// defaultDecay is used when the capital ratios cannot be compared
const defaultDecay = 0.1

// CapitalPoint is one month of the capital ratio trajectory
type CapitalPoint struct {
	Month int     `json:"month"`
	Ratio float64 `json:"ratio"`
}

// CashPoint is one month of the liquidity burn trajectory
type CashPoint struct {
	Month int     `json:"month"`
	Cash  float64 `json:"cash"`
}

// Projection holds both 25-point trajectories
type Projection struct {
	CapitalDeterioration []CapitalPoint `json:"capital_deterioration"`
	LiquidityBurn        []CashPoint    `json:"liquidity_burn"`
}

// Project builds the capital decay and cash burn trajectories.
// baselineCapital and stressedCapital are the two capital ratios; cash is the
// starting balance and stressedBurn the stressed monthly burn (nil if unknown).
func Project(baselineCapital, stressedCapital *float64, cash float64, stressedBurn *float64) Projection {
	decay := defaultDecay
	if baselineCapital != nil && stressedCapital != nil && *baselineCapital > 0 {
		decay = 1 - *stressedCapital / *baselineCapital
	}

	capital := make([]CapitalPoint, 0, ProjectionMonths+1)
	for m := 0; m <= ProjectionMonths; m++ {
		ratio := 0.0
		if baselineCapital != nil {
			ratio = math.Max(0, *baselineCapital*(1-decay*float64(m)/ProjectionMonths))
		}
		capital = append(capital, CapitalPoint{Month: m, Ratio: math.Min(1, ratio)})
	}

	burn := cash / 12
	if stressedBurn != nil {
		burn = *stressedBurn
	}
	liquidity := make([]CashPoint, 0, ProjectionMonths+1)
	running := cash
	for m := 0; m <= ProjectionMonths; m++ {
		liquidity = append(liquidity, CashPoint{Month: m, Cash: math.Max(0, running)})
		running -= burn
	}

	return Projection{CapitalDeterioration: capital, LiquidityBurn: liquidity}
}
