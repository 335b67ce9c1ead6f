package stress

import (
	"math"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPaths is the number of simulated equity paths per VaR estimate
	DefaultPaths = 1000
	// TradingDays is the simulation horizon, one year of daily steps
	TradingDays = 252
	// tailPercentile selects the 95% confidence level
	tailPercentile = 0.05
	// pathBlock is the number of paths drawn from one sub-seed
	pathBlock = 125
)

// SourceFunc returns a fresh random source for one VaR estimate.
// Each call must return a source that is not shared with other callers.
type SourceFunc func() rand.Source

// NewSource returns non-deterministic PCG sources
func NewSource() SourceFunc {
	return func() rand.Source {
		return rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
}

// SeededSource returns a source with the same seed on every call, so repeated
// estimates with identical inputs are identical.
func SeededSource(seed uint64) SourceFunc {
	return func() rand.Source {
		return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
}

// MonteCarlo estimates Value-at-Risk by simulating geometric Brownian motion
type MonteCarlo struct {
	source  SourceFunc
	paths   int
	steps   int
	workers int
}

// Option configures a MonteCarlo engine
type Option func(*MonteCarlo)

// WithWorkers splits the paths across n goroutines. Results for a fixed seed
// do not depend on n.
func WithWorkers(n int) Option {
	return func(m *MonteCarlo) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithPaths overrides the number of simulated paths
func WithPaths(n int) Option {
	return func(m *MonteCarlo) {
		if n > 0 {
			m.paths = n
		}
	}
}

// NewMonteCarlo creates a VaR engine drawing from source. A nil source
// falls back to NewSource.
func NewMonteCarlo(source SourceFunc, opts ...Option) *MonteCarlo {
	if source == nil {
		source = NewSource()
	}
	m := &MonteCarlo{
		source:  source,
		paths:   DefaultPaths,
		steps:   TradingDays,
		workers: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// VaR95 returns the one-year 95% Value-at-Risk of initialEquity: the initial
// value minus the 5th percentile of simulated terminal values, floored at
// zero. Returns 0 when initialEquity is not positive.
func (m *MonteCarlo) VaR95(initialEquity, volatility, drift float64) float64 {
	if initialEquity <= 0 {
		return 0
	}
	terminal := m.simulate(initialEquity, volatility, drift)
	slices.Sort(terminal)
	idx := int(math.Floor(tailPercentile * float64(len(terminal))))
	return math.Max(0, initialEquity-terminal[idx])
}

func (m *MonteCarlo) simulate(initial, vol, drift float64) []float64 {
	terminal := make([]float64, m.paths)
	rng := rand.New(m.source())

	// Paths are grouped in fixed blocks, each seeded from the parent source in
	// block order, so a fixed seed gives the same paths for any worker count.
	blocks := (m.paths + pathBlock - 1) / pathBlock
	seeds := make([]uint64, blocks)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}

	var g errgroup.Group
	g.SetLimit(m.workers)
	for b := 0; b < blocks; b++ {
		lo := b * pathBlock
		hi := min(lo+pathBlock, m.paths)
		g.Go(func() error {
			r := rand.New(rand.NewPCG(seeds[b], uint64(b)))
			m.simulateRange(r, terminal[lo:hi], initial, vol, drift)
			return nil
		})
	}
	_ = g.Wait()
	return terminal
}

func (m *MonteCarlo) simulateRange(r *rand.Rand, out []float64, initial, vol, drift float64) {
	dt := 1.0 / TradingDays
	mu := (drift - 0.5*vol*vol) * dt
	sigma := vol * math.Sqrt(dt)
	for i := range out {
		s := initial
		for t := 0; t < m.steps; t++ {
			s *= math.Exp(mu + sigma*r.NormFloat64())
		}
		out[i] = s
	}
}
