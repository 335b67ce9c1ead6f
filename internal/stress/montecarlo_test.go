package stress

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaR95_NonPositiveEquity(t *testing.T) {
	mc := NewMonteCarlo(SeededSource(1))
	assert.Equal(t, 0.0, mc.VaR95(0, 0.2, 0))
	assert.Equal(t, 0.0, mc.VaR95(-100, 0.2, 0))
}

func TestVaR95_ZeroVolatility(t *testing.T) {
	// with no volatility and no drift every path ends where it started
	mc := NewMonteCarlo(SeededSource(1))
	assert.InDelta(t, 0.0, mc.VaR95(1_000, 0, 0), 1e-9)
}

func TestVaR95_MatchesLognormalQuantile(t *testing.T) {
	tests := []struct {
		name       string
		volatility float64
	}{
		{name: "baseline volatility", volatility: 0.2},
		{name: "spiked volatility", volatility: 0.3},
		{name: "doubled volatility", volatility: 0.4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mc := NewMonteCarlo(SeededSource(7))
			got := mc.VaR95(100, tc.volatility, 0)

			// terminal log value ~ N(-vol^2/2, vol^2); z(0.05) = -1.645
			expected := 100 * (1 - math.Exp(-0.5*tc.volatility*tc.volatility-1.6449*tc.volatility))
			assert.InDelta(t, expected, got, 6.0)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestVaR95_SeededIsDeterministic(t *testing.T) {
	a := NewMonteCarlo(SeededSource(99)).VaR95(55_000_000, 0.2, 0)
	b := NewMonteCarlo(SeededSource(99)).VaR95(55_000_000, 0.2, 0)
	assert.Equal(t, a, b)

	c := NewMonteCarlo(SeededSource(100)).VaR95(55_000_000, 0.2, 0)
	assert.NotEqual(t, a, c)
}

func TestVaR95_WorkerCountDoesNotChangeResult(t *testing.T) {
	single := NewMonteCarlo(SeededSource(5)).VaR95(1_000_000, 0.25, 0)
	for _, workers := range []int{2, 3, 8, 64} {
		parallel := NewMonteCarlo(SeededSource(5), WithWorkers(workers)).VaR95(1_000_000, 0.25, 0)
		assert.Equal(t, single, parallel, "workers=%d", workers)
	}
}

func TestVaR95_PathCountNotMultipleOfBlock(t *testing.T) {
	mc := NewMonteCarlo(SeededSource(3), WithPaths(301), WithWorkers(4))
	got := mc.VaR95(100, 0.2, 0)
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 100.0)
}

func TestVaR95_ConcurrentCallers(t *testing.T) {
	mc := NewMonteCarlo(SeededSource(11), WithWorkers(2))
	want := mc.VaR95(500, 0.2, 0)

	var wg sync.WaitGroup
	results := make([]float64, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = mc.VaR95(500, 0.2, 0)
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, want, r)
	}
}

func TestNewMonteCarlo_Defaults(t *testing.T) {
	mc := NewMonteCarlo(nil, WithWorkers(0), WithPaths(-1))
	require.NotNil(t, mc.source)
	assert.Equal(t, DefaultPaths, mc.paths)
	assert.Equal(t, TradingDays, mc.steps)
	assert.Equal(t, 1, mc.workers)
}
