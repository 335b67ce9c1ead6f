package stress

import "math"

// Fragility rule thresholds and weights. The checklist is a heuristic, not a
// calibrated model; the values are kept stable for comparability of scores.
const (
	fragilityBase         = 50
	dscrWarnThreshold     = 1.25
	dscrBreachThreshold   = 1.0
	dscrPenalty           = 15
	capitalRatioThreshold = 0.20
	capitalRatioPenalty   = 10
	runwayMonthsThreshold = 6
	runwayPenalty         = 10
	varEquityThreshold    = 0.30
	varPenalty            = 5
	fragilityMin          = 0
	fragilityMax          = 100
)

// FragilityScore aggregates the stressed ratios into a 0-100 score.
// equity is the reported (unstressed) equity VaR is measured against.
func FragilityScore(stressed RatioSet, equity float64) int {
	score := float64(fragilityBase)
	if stressed.DSCR != nil && *stressed.DSCR < dscrWarnThreshold {
		score += dscrPenalty
	}
	if stressed.DSCR != nil && *stressed.DSCR < dscrBreachThreshold {
		score += dscrPenalty
	}
	if stressed.CapitalRatio != nil && *stressed.CapitalRatio < capitalRatioThreshold {
		score += capitalRatioPenalty
	}
	if stressed.LiquidityRunwayMonths != nil && *stressed.LiquidityRunwayMonths < runwayMonthsThreshold {
		score += runwayPenalty
	}
	if stressed.VaR95 != nil && equity > 0 && *stressed.VaR95/equity > varEquityThreshold {
		score += varPenalty
	}
	return int(math.Round(math.Min(fragilityMax, math.Max(fragilityMin, score))))
}
