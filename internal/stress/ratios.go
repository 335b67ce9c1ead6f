package stress

// RatioSet holds the metrics computed for one state (baseline or stressed).
// A nil ratio means it could not be computed.
type RatioSet struct {
	InterestExpense       float64  `json:"interest_expense"`
	DSCR                  *float64 `json:"dscr"`
	CapitalRatio          *float64 `json:"capital_ratio"`
	LiquidityRunwayMonths *float64 `json:"liquidity_runway_months"`
	VaR95                 *float64 `json:"var_95"`
}

// Position is the numeric view of a company that ratios are computed on.
// Unknown monetary inputs are already folded to zero; MonthlyBurn keeps its
// nil state.
type Position struct {
	Revenue     float64
	EBITDA      float64
	Debt        float64
	Cash        float64
	Equity      float64
	Rate        float64
	MonthlyBurn *float64
	Volatility  float64
}

// BaselineVolatility is the annualized equity volatility used for VaR
const BaselineVolatility = 0.2

// NewPosition folds inputs into a baseline position
func NewPosition(in FinancialInputs) Position {
	return Position{
		Revenue:     orZero(in.Revenue),
		EBITDA:      orZero(in.EBITDA),
		Debt:        orZero(in.Debt),
		Cash:        orZero(in.Cash),
		Equity:      orZero(in.Equity),
		Rate:        in.Rate(),
		MonthlyBurn: in.BaselineMonthlyBurn(),
		Volatility:  BaselineVolatility,
	}
}

// InterestExpense is debt times rate
func (p Position) InterestExpense() float64 {
	return p.Debt * p.Rate
}

// Ratios computes every ratio except VaR, which needs the simulation engine.
func (p Position) Ratios() RatioSet {
	rs := RatioSet{InterestExpense: p.InterestExpense()}
	if rs.InterestExpense > 0 {
		rs.DSCR = Float(p.EBITDA / rs.InterestExpense)
	}
	if total := p.Debt + p.Equity; total > 0 {
		rs.CapitalRatio = Float(p.Equity / total)
	}
	if p.MonthlyBurn != nil && *p.MonthlyBurn > 0 {
		rs.LiquidityRunwayMonths = Float(p.Cash / *p.MonthlyBurn)
	}
	return rs
}

// BaselineRatios computes the un-shocked ratios of the inputs (VaR excluded)
func BaselineRatios(in FinancialInputs) RatioSet {
	return NewPosition(in).Ratios()
}
