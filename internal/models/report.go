package models

import "time"

// KeyMetrics are the headline figures of the executive brief
type KeyMetrics struct {
	Revenue *float64 `json:"revenue"`
	EBITDA  *float64 `json:"ebitda"`
	Debt    *float64 `json:"debt"`
	Cash    *float64 `json:"cash"`
	Equity  *float64 `json:"equity"`
}

// StressSummary condenses a stress run for the brief
type StressSummary struct {
	ScenarioName         string   `json:"scenario_name"`
	FragilityScore       *int     `json:"fragility_score"`
	BaselineDSCR         *float64 `json:"baseline_dscr"`
	StressedDSCR         *float64 `json:"stressed_dscr"`
	BaselineRunwayMonths *float64 `json:"baseline_runway_months"`
	StressedRunwayMonths *float64 `json:"stressed_runway_months"`
}

// DisclosureSummary condenses a disclosure analysis for the brief
type DisclosureSummary struct {
	FileName            *string  `json:"file_name"`
	DisclosureRiskScore *float64 `json:"disclosure_risk_score"`
	ExecutiveSummary    string   `json:"executive_summary"`
}

// ReportPayload is the input of the executive risk brief renderer
type ReportPayload struct {
	GeneratedAt       time.Time          `json:"generated_at"`
	CompanyName       string             `json:"company_name"`
	KeyMetrics        KeyMetrics         `json:"key_metrics"`
	FormattedMetrics  map[string]string  `json:"formatted_metrics"`
	KeyRisks          []string           `json:"key_risks"`
	StressSummary     *StressSummary     `json:"stress_summary"`
	DisclosureSummary *DisclosureSummary `json:"disclosure_summary"`
	Recommendations   []string           `json:"recommendations"`
}
