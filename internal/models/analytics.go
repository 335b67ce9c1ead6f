package models

// Counts summarises what a user has stored
type Counts struct {
	Datasets   int `json:"datasets"`
	StressRuns int `json:"stress_runs"`
	Analyses   int `json:"analyses"`
}
