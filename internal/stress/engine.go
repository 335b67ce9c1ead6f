package stress

// HeatmapRow compares one metric between baseline and stressed states.
// Unknown values are rendered as 0 for charting only.
type HeatmapRow struct {
	Metric   string  `json:"metric"`
	Baseline float64 `json:"baseline"`
	Stressed float64 `json:"stressed"`
	Unit     string  `json:"unit"`
}

// StressResult is the full output of one stress run
type StressResult struct {
	ScenarioID           ScenarioID     `json:"scenario_id"`
	ScenarioName         string         `json:"scenario_name"`
	Baseline             RatioSet       `json:"baseline"`
	Stressed             RatioSet       `json:"stressed"`
	CapitalDeterioration []CapitalPoint `json:"capital_deterioration"`
	LiquidityBurn        []CashPoint    `json:"liquidity_burn"`
	Heatmap              []HeatmapRow   `json:"heatmap"`
	FragilityScore       int            `json:"fragility_score"`
}

// Engine runs stress scenarios. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	mc *MonteCarlo
}

// NewEngine creates an engine using mc for VaR estimates
func NewEngine(mc *MonteCarlo) *Engine {
	if mc == nil {
		mc = NewMonteCarlo(nil)
	}
	return &Engine{mc: mc}
}

// Run applies the scenario to the inputs and computes baseline and stressed
// metrics, projections and the fragility score. Callers are expected to have
// validated the scenario id; an unknown id returns ErrUnknownScenario.
func (e *Engine) Run(in FinancialInputs, id ScenarioID, overrides *ScenarioOverrides) (*StressResult, error) {
	shock, err := ApplyShock(in, id, overrides)
	if err != nil {
		return nil, err
	}

	baseline := shock.Baseline.Ratios()
	stressed := shock.Stressed.Ratios()

	// VaR is measured on reported equity in both states; only volatility moves.
	equity := shock.Baseline.Equity
	if equity > 0 {
		baseline.VaR95 = Float(e.mc.VaR95(equity, shock.Baseline.Volatility, 0))
		stressed.VaR95 = Float(e.mc.VaR95(equity, shock.Stressed.Volatility, 0))
	}

	projection := Project(baseline.CapitalRatio, stressed.CapitalRatio, shock.Baseline.Cash, shock.Stressed.MonthlyBurn)

	return &StressResult{
		ScenarioID:           shock.Scenario.ID,
		ScenarioName:         shock.Scenario.Name,
		Baseline:             baseline,
		Stressed:             stressed,
		CapitalDeterioration: projection.CapitalDeterioration,
		LiquidityBurn:        projection.LiquidityBurn,
		Heatmap:              Heatmap(baseline, stressed),
		FragilityScore:       FragilityScore(stressed, equity),
	}, nil
}

// Heatmap builds the five-row metric comparison table
func Heatmap(baseline, stressed RatioSet) []HeatmapRow {
	return []HeatmapRow{
		{Metric: "Interest expense", Baseline: baseline.InterestExpense, Stressed: stressed.InterestExpense, Unit: "$"},
		{Metric: "DSCR", Baseline: chartValue(baseline.DSCR, 1), Stressed: chartValue(stressed.DSCR, 1), Unit: "x"},
		{Metric: "Capital ratio", Baseline: chartValue(baseline.CapitalRatio, 100), Stressed: chartValue(stressed.CapitalRatio, 100), Unit: "%"},
		{Metric: "Runway (months)", Baseline: chartValue(baseline.LiquidityRunwayMonths, 1), Stressed: chartValue(stressed.LiquidityRunwayMonths, 1), Unit: "mo"},
		{Metric: "VaR (95%)", Baseline: chartValue(baseline.VaR95, 1), Stressed: chartValue(stressed.VaR95, 1), Unit: "$"},
	}
}

func chartValue(v *float64, scale float64) float64 {
	if v == nil {
		return 0
	}
	return *v * scale
}
