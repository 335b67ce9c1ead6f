package models

import (
	"time"

	"github.com/Dan9191/stress-service/internal/stress"
)

// ScenarioParams records what a run was asked to do
type ScenarioParams struct {
	ScenarioID stress.ScenarioID        `json:"scenario_id"`
	Overrides  stress.ResolvedOverrides `json:"overrides"`
	Source     string                   `json:"source,omitempty"`
}

// StressRun is a persisted stress result
type StressRun struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	DatasetID      *string              `json:"dataset_id"`
	ScenarioName   string               `json:"scenario_name"`
	ScenarioParams ScenarioParams       `json:"scenario_params"`
	Results        *stress.StressResult `json:"results"`
	FragilityScore *int                 `json:"fragility_score"`
	CreatedAt      time.Time            `json:"created_at"`
}

// FragilityAlert describes a stress run whose score crossed the alert threshold
type FragilityAlert struct {
	RunID          string
	CompanyName    string
	ScenarioName   string
	FragilityScore int
	Threshold      int
	StressedDSCR   *float64
	StressedRunway *float64
	CreatedAt      time.Time
}
