package stress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFragilityScore(t *testing.T) {
	tests := []struct {
		name     string
		stressed RatioSet
		equity   float64
		expected int
	}{
		{
			name:     "nothing known",
			stressed: RatioSet{},
			equity:   0,
			expected: 50,
		},
		{
			name:     "healthy company",
			stressed: RatioSet{DSCR: Float(3), CapitalRatio: Float(0.5), LiquidityRunwayMonths: Float(24), VaR95: Float(10)},
			equity:   100,
			expected: 50,
		},
		{
			name:     "dscr just below warning",
			stressed: RatioSet{DSCR: Float(1.249)},
			expected: 65,
		},
		{
			name:     "dscr at warning threshold",
			stressed: RatioSet{DSCR: Float(1.25)},
			expected: 50,
		},
		{
			name:     "dscr breach is cumulative",
			stressed: RatioSet{DSCR: Float(0.99)},
			expected: 80,
		},
		{
			name:     "thin capital",
			stressed: RatioSet{CapitalRatio: Float(0.19)},
			expected: 60,
		},
		{
			name:     "short runway",
			stressed: RatioSet{LiquidityRunwayMonths: Float(5.9)},
			expected: 60,
		},
		{
			name:     "var above thirty percent of equity",
			stressed: RatioSet{VaR95: Float(31)},
			equity:   100,
			expected: 55,
		},
		{
			name:     "var ignored without equity",
			stressed: RatioSet{VaR95: Float(31)},
			equity:   0,
			expected: 50,
		},
		{
			name:     "var exactly thirty percent",
			stressed: RatioSet{VaR95: Float(30)},
			equity:   100,
			expected: 50,
		},
		{
			name: "every rule fires and is clamped",
			stressed: RatioSet{
				DSCR:                  Float(-1),
				CapitalRatio:          Float(0),
				LiquidityRunwayMonths: Float(0.5),
				VaR95:                 Float(90),
			},
			equity:   100,
			expected: 100,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FragilityScore(tc.stressed, tc.equity))
		})
	}
}

func TestFragilityScore_IsPure(t *testing.T) {
	rs := RatioSet{DSCR: Float(1.1), CapitalRatio: Float(0.15), LiquidityRunwayMonths: Float(3)}
	assert.Equal(t, FragilityScore(rs, 10), FragilityScore(rs, 10))
}
