package stress

import (
	"fmt"
	"math"
)

// equityHitYears is how many years of extra interest cost are charged
// against equity in the stressed state.
const equityHitYears = 2

// Shock is a stressed position together with the magnitudes that produced it
type Shock struct {
	Scenario   Scenario
	Parameters ResolvedOverrides
	Baseline   Position
	Stressed   Position
}

// ApplyShock transforms the baseline inputs according to the scenario.
//
// Stressed equity is approximated as equity less two years of the
// additional interest expense, floored at zero. This is a simplification,
// not a cash-flow model.
func ApplyShock(in FinancialInputs, id ScenarioID, overrides *ScenarioOverrides) (Shock, error) {
	scenario, ok := LookupScenario(id)
	if !ok {
		return Shock{}, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	params := overrides.Resolve()
	base := NewPosition(in)
	stressed := base

	switch id {
	case InterestRate200bps:
		stressed.Rate = base.Rate + params.InterestRateBps/10000
	case RevenueDown20:
		factor := 1 - params.RevenueDownPct/100
		stressed.Revenue = base.Revenue * factor
		stressed.EBITDA = base.EBITDA * factor
	case LiquidityFreeze:
		if base.MonthlyBurn != nil {
			stressed.MonthlyBurn = Float(*base.MonthlyBurn * params.LiquidityBurnMultiplier)
		}
	case CreditSpreadWidening:
		stressed.Rate = base.Rate + params.CreditSpreadBps/10000
	case VolatilitySpike:
		stressed.Volatility = base.Volatility * params.VolatilityMultiplier
	}

	extraInterest := stressed.InterestExpense() - base.InterestExpense()
	stressed.Equity = math.Max(0, base.Equity-extraInterest*equityHitYears)

	return Shock{
		Scenario:   scenario,
		Parameters: params,
		Baseline:   base,
		Stressed:   stressed,
	}, nil
}

// StressedRatios computes the ratios of the shocked position (VaR excluded)
func StressedRatios(s Shock) RatioSet {
	return s.Stressed.Ratios()
}
