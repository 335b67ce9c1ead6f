package stress

import (
	"errors"
	"fmt"
)

// ScenarioID identifies one of the fixed shock scenarios
type ScenarioID string

const (
	InterestRate200bps   ScenarioID = "interest_rate_200bps"
	RevenueDown20        ScenarioID = "revenue_down_20"
	LiquidityFreeze      ScenarioID = "liquidity_freeze"
	CreditSpreadWidening ScenarioID = "credit_spread_widening"
	VolatilitySpike      ScenarioID = "volatility_spike"
)

// ErrUnknownScenario is returned when a scenario id is not in the catalog
var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario is a catalog entry
type Scenario struct {
	ID          ScenarioID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
}

var catalog = [...]Scenario{
	{ID: InterestRate200bps, Name: "Interest rate +200bps", Description: "Rates up 2%; higher interest expense."},
	{ID: RevenueDown20, Name: "Revenue -20%", Description: "Top line shock; EBITDA and cash flow impact."},
	{ID: LiquidityFreeze, Name: "Liquidity freeze", Description: "No new funding; burn from cash only."},
	{ID: CreditSpreadWidening, Name: "Credit spread widening", Description: "Refi cost +150bps; debt servicing pressure."},
	{ID: VolatilitySpike, Name: "Market volatility spike", Description: "VaR and capital at risk increase."},
}

// Catalog returns the scenario list in display order.
// The returned slice is a copy; the catalog itself cannot be changed.
func Catalog() []Scenario {
	out := make([]Scenario, len(catalog))
	copy(out, catalog[:])
	return out
}

// LookupScenario finds a scenario by id
func LookupScenario(id ScenarioID) (Scenario, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// ParseScenarioID validates a raw identifier against the catalog
func ParseScenarioID(raw string) (ScenarioID, error) {
	id := ScenarioID(raw)
	if _, ok := LookupScenario(id); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownScenario, raw)
	}
	return id, nil
}
