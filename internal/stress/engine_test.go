package stress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInputs() FinancialInputs {
	return FinancialInputs{
		Revenue: Float(100_000_000),
		EBITDA:  Float(18_000_000),
		Debt:    Float(45_000_000),
		Cash:    Float(12_000_000),
		Equity:  Float(55_000_000),
	}
}

func seededEngine() *Engine {
	return NewEngine(NewMonteCarlo(SeededSource(42)))
}

func TestEngineRun_AllScenarios(t *testing.T) {
	engine := seededEngine()
	for _, scenario := range Catalog() {
		t.Run(string(scenario.ID), func(t *testing.T) {
			result, err := engine.Run(sampleInputs(), scenario.ID, nil)
			require.NoError(t, err)

			assert.Equal(t, scenario.ID, result.ScenarioID)
			assert.Equal(t, scenario.Name, result.ScenarioName)
			assert.GreaterOrEqual(t, result.FragilityScore, 0)
			assert.LessOrEqual(t, result.FragilityScore, 100)

			require.Len(t, result.CapitalDeterioration, ProjectionMonths+1)
			require.Len(t, result.LiquidityBurn, ProjectionMonths+1)
			for m := 0; m <= ProjectionMonths; m++ {
				assert.Equal(t, m, result.CapitalDeterioration[m].Month)
				assert.GreaterOrEqual(t, result.CapitalDeterioration[m].Ratio, 0.0)
				assert.Equal(t, m, result.LiquidityBurn[m].Month)
				assert.GreaterOrEqual(t, result.LiquidityBurn[m].Cash, 0.0)
			}
			assert.Len(t, result.Heatmap, 5)
		})
	}
}

func TestEngineRun_UnknownScenario(t *testing.T) {
	_, err := seededEngine().Run(sampleInputs(), ScenarioID("meteor_strike"), nil)
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestEngineRun_InterestRateExample(t *testing.T) {
	result, err := seededEngine().Run(sampleInputs(), InterestRate200bps, nil)
	require.NoError(t, err)

	assert.InDelta(t, 2_250_000, result.Baseline.InterestExpense, 1e-6)
	assert.InDelta(t, 3_150_000, result.Stressed.InterestExpense, 1e-6)
	require.NotNil(t, result.Stressed.DSCR)
	assert.InDelta(t, 5.714, *result.Stressed.DSCR, 0.001)

	// 55M less two years of the extra 0.9M interest
	require.NotNil(t, result.Stressed.CapitalRatio)
	assert.InDelta(t, 53_200_000.0/98_200_000.0, *result.Stressed.CapitalRatio, 1e-12)

	burn := (100_000_000.0 - 18_000_000.0) / 12
	require.NotNil(t, result.Stressed.LiquidityRunwayMonths)
	assert.InDelta(t, 12_000_000/burn, *result.Stressed.LiquidityRunwayMonths, 1e-12)

	// base 50 + runway under six months; the VaR rule may add 5
	assert.Contains(t, []int{60, 65}, result.FragilityScore)
}

func TestEngineRun_SeededIsReproducible(t *testing.T) {
	a, err := seededEngine().Run(sampleInputs(), VolatilitySpike, nil)
	require.NoError(t, err)
	b, err := seededEngine().Run(sampleInputs(), VolatilitySpike, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEngineRun_NoEquityMeansNoVaR(t *testing.T) {
	in := sampleInputs()
	in.Equity = nil
	result, err := seededEngine().Run(in, VolatilitySpike, nil)
	require.NoError(t, err)
	assert.Nil(t, result.Baseline.VaR95)
	assert.Nil(t, result.Stressed.VaR95)
	assert.Equal(t, 0.0, result.Heatmap[4].Baseline)
}

func TestEngineRun_VolatilitySpikeRaisesVaR(t *testing.T) {
	result, err := seededEngine().Run(sampleInputs(), VolatilitySpike, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Baseline.VaR95)
	require.NotNil(t, result.Stressed.VaR95)
	assert.Greater(t, *result.Stressed.VaR95, *result.Baseline.VaR95)
	// at 30% volatility the 5th percentile loss is ~42% of equity:
	// base 50 + runway 10 + VaR 5
	assert.Equal(t, 65, result.FragilityScore)
}

func TestEngineRun_AllUnknownInputs(t *testing.T) {
	result, err := seededEngine().Run(FinancialInputs{}, LiquidityFreeze, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Baseline.InterestExpense)
	assert.Nil(t, result.Baseline.DSCR)
	assert.Nil(t, result.Baseline.CapitalRatio)
	assert.Nil(t, result.Baseline.LiquidityRunwayMonths)
	assert.Nil(t, result.Baseline.VaR95)
	assert.Equal(t, 50, result.FragilityScore)
	for _, p := range result.CapitalDeterioration {
		assert.Equal(t, 0.0, p.Ratio)
	}
	for _, p := range result.LiquidityBurn {
		assert.Equal(t, 0.0, p.Cash)
	}
}

func TestHeatmap(t *testing.T) {
	baseline := RatioSet{InterestExpense: 100, DSCR: Float(2), CapitalRatio: Float(0.5)}
	stressed := RatioSet{InterestExpense: 150, CapitalRatio: Float(0.25), VaR95: Float(10)}

	rows := Heatmap(baseline, stressed)
	require.Len(t, rows, 5)

	assert.Equal(t, HeatmapRow{Metric: "Interest expense", Baseline: 100, Stressed: 150, Unit: "$"}, rows[0])
	assert.Equal(t, HeatmapRow{Metric: "DSCR", Baseline: 2, Stressed: 0, Unit: "x"}, rows[1])
	assert.Equal(t, HeatmapRow{Metric: "Capital ratio", Baseline: 50, Stressed: 25, Unit: "%"}, rows[2])
	assert.Equal(t, HeatmapRow{Metric: "Runway (months)", Baseline: 0, Stressed: 0, Unit: "mo"}, rows[3])
	assert.Equal(t, HeatmapRow{Metric: "VaR (95%)", Baseline: 0, Stressed: 10, Unit: "$"}, rows[4])
}

func TestNewEngine_NilMonteCarlo(t *testing.T) {
	engine := NewEngine(nil)
	result, err := engine.Run(sampleInputs(), RevenueDown20, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Baseline.VaR95)
	assert.False(t, math.IsNaN(*result.Baseline.VaR95))
}
