package stress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_CapitalDecay(t *testing.T) {
	p := Project(Float(0.5), Float(0.4), 0, nil)
	require.Len(t, p.CapitalDeterioration, 25)

	// decay = 1 - 0.4/0.5 = 0.2, so the ratio ends at 0.5 * 0.8
	assert.InDelta(t, 0.5, p.CapitalDeterioration[0].Ratio, 1e-12)
	assert.InDelta(t, 0.45, p.CapitalDeterioration[12].Ratio, 1e-12)
	assert.InDelta(t, 0.4, p.CapitalDeterioration[24].Ratio, 1e-12)

	for m := 1; m < len(p.CapitalDeterioration); m++ {
		assert.LessOrEqual(t, p.CapitalDeterioration[m].Ratio, p.CapitalDeterioration[m-1].Ratio)
	}
}

func TestProject_DefaultDecayWhenStressedUnknown(t *testing.T) {
	p := Project(Float(0.6), nil, 0, nil)
	assert.InDelta(t, 0.6*0.9, p.CapitalDeterioration[24].Ratio, 1e-12)
}

func TestProject_DefaultDecayWhenBaselineNotPositive(t *testing.T) {
	p := Project(Float(-0.2), Float(0), 0, nil)
	for _, point := range p.CapitalDeterioration {
		assert.Equal(t, 0.0, point.Ratio)
	}
}

func TestProject_UnknownBaselineReportsZero(t *testing.T) {
	p := Project(nil, Float(0.3), 0, nil)
	for _, point := range p.CapitalDeterioration {
		assert.Equal(t, 0.0, point.Ratio)
	}
}

func TestProject_SeverePathFloorsAtZero(t *testing.T) {
	// decay = 1 - (-1)/0.5 = 3, crosses zero at month 8
	p := Project(Float(0.5), Float(-1), 0, nil)
	assert.InDelta(t, 0.0, p.CapitalDeterioration[8].Ratio, 1e-12)
	assert.Equal(t, 0.0, p.CapitalDeterioration[24].Ratio)
}

func TestProject_ImprovingCapitalClampedAtOne(t *testing.T) {
	// negative decay grows the ratio; it never exceeds 1
	p := Project(Float(0.8), Float(1.6), 0, nil)
	assert.Equal(t, 1.0, p.CapitalDeterioration[24].Ratio)
}

func TestProject_LiquidityBurn(t *testing.T) {
	p := Project(nil, nil, 1_000, Float(100))
	require.Len(t, p.LiquidityBurn, 25)

	assert.Equal(t, CashPoint{Month: 0, Cash: 1_000}, p.LiquidityBurn[0])
	assert.Equal(t, CashPoint{Month: 5, Cash: 500}, p.LiquidityBurn[5])
	assert.Equal(t, CashPoint{Month: 10, Cash: 0}, p.LiquidityBurn[10])
	assert.Equal(t, CashPoint{Month: 24, Cash: 0}, p.LiquidityBurn[24])
}

func TestProject_LiquidityBurnDefaultsToTwelveMonths(t *testing.T) {
	p := Project(nil, nil, 1_200, nil)
	assert.InDelta(t, 600, p.LiquidityBurn[6].Cash, 1e-9)
	assert.InDelta(t, 0, p.LiquidityBurn[12].Cash, 1e-9)
	assert.Equal(t, 0.0, p.LiquidityBurn[13].Cash)
}

func TestProject_IsPure(t *testing.T) {
	a := Project(Float(0.5), Float(0.45), 12_000_000, Float(6_833_333.33))
	b := Project(Float(0.5), Float(0.45), 12_000_000, Float(6_833_333.33))
	assert.Equal(t, a, b)
}
