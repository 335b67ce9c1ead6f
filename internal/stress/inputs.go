package stress

import "math"

// DefaultInterestRate applies when the inputs carry no rate
const DefaultInterestRate = 0.05

// FinancialInputs is a balance-sheet and income-statement snapshot.
// A nil field means the value is unknown.
type FinancialInputs struct {
	Revenue        *float64 `json:"revenue"`
	EBITDA         *float64 `json:"ebitda"`
	Debt           *float64 `json:"debt"`
	Cash           *float64 `json:"cash"`
	Equity         *float64 `json:"equity"`
	WorkingCapital *float64 `json:"working_capital"`
	// InterestRate is a decimal fraction, e.g. 0.05
	InterestRate *float64 `json:"interest_rate,omitempty"`
	MonthlyBurn  *float64 `json:"monthly_burn,omitempty"`
}

// HasAnyMetric reports whether at least one of revenue, ebitda, debt, cash
// or equity is known.
func (in FinancialInputs) HasAnyMetric() bool {
	for _, v := range []*float64{in.Revenue, in.EBITDA, in.Debt, in.Cash, in.Equity} {
		if known(v) {
			return true
		}
	}
	return false
}

// Rate returns the effective interest rate
func (in FinancialInputs) Rate() float64 {
	if known(in.InterestRate) {
		return *in.InterestRate
	}
	return DefaultInterestRate
}

// BaselineMonthlyBurn returns the supplied burn, or (revenue - ebitda) / 12
// when revenue is positive, or nil.
func (in FinancialInputs) BaselineMonthlyBurn() *float64 {
	if known(in.MonthlyBurn) {
		return Float(*in.MonthlyBurn)
	}
	revenue := orZero(in.Revenue)
	if revenue > 0 {
		return Float((revenue - orZero(in.EBITDA)) / 12)
	}
	return nil
}

// ScenarioOverrides carries optional per-run shock magnitudes
type ScenarioOverrides struct {
	InterestRateBps         *float64 `json:"interest_rate_bps,omitempty"`
	RevenueDownPct          *float64 `json:"revenue_down_pct,omitempty"`
	CreditSpreadBps         *float64 `json:"credit_spread_bps,omitempty"`
	LiquidityBurnMultiplier *float64 `json:"liquidity_burn_multiplier,omitempty"`
	VolatilityMultiplier    *float64 `json:"volatility_multiplier,omitempty"`
}

// ResolvedOverrides holds the magnitudes actually applied
type ResolvedOverrides struct {
	InterestRateBps         float64 `json:"interest_rate_bps"`
	RevenueDownPct          float64 `json:"revenue_down_pct"`
	CreditSpreadBps         float64 `json:"credit_spread_bps"`
	LiquidityBurnMultiplier float64 `json:"liquidity_burn_multiplier"`
	VolatilityMultiplier    float64 `json:"volatility_multiplier"`
}

// DefaultOverrides are the catalog magnitudes
var DefaultOverrides = ResolvedOverrides{
	InterestRateBps:         200,
	RevenueDownPct:          20,
	CreditSpreadBps:         150,
	LiquidityBurnMultiplier: 1.5,
	VolatilityMultiplier:    1.5,
}

// Resolve fills missing or non-finite fields with defaults. The revenue
// decline is clamped to [0, 100]; multipliers must be positive.
func (o *ScenarioOverrides) Resolve() ResolvedOverrides {
	r := DefaultOverrides
	if o == nil {
		return r
	}
	if known(o.InterestRateBps) {
		r.InterestRateBps = *o.InterestRateBps
	}
	if known(o.RevenueDownPct) {
		r.RevenueDownPct = math.Min(100, math.Max(0, *o.RevenueDownPct))
	}
	if known(o.CreditSpreadBps) {
		r.CreditSpreadBps = *o.CreditSpreadBps
	}
	if known(o.LiquidityBurnMultiplier) && *o.LiquidityBurnMultiplier > 0 {
		r.LiquidityBurnMultiplier = *o.LiquidityBurnMultiplier
	}
	if known(o.VolatilityMultiplier) && *o.VolatilityMultiplier > 0 {
		r.VolatilityMultiplier = *o.VolatilityMultiplier
	}
	return r
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

func known(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0)
}

func orZero(p *float64) float64 {
	if !known(p) {
		return 0
	}
	return *p
}
