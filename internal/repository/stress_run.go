package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dan9191/stress-service/internal/models"
	"github.com/google/uuid"
)

const stressRunColumns = `id, user_id, dataset_id, scenario_name, scenario_params, results, fragility_score, created_at`

// CreateStressRun stores a stress run result
func (r *Repository) CreateStressRun(ctx context.Context, run *models.StressRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	params, err := json.Marshal(run.ScenarioParams)
	if err != nil {
		return fmt.Errorf("failed to encode scenario params: %w", err)
	}
	results, err := json.Marshal(run.Results)
	if err != nil {
		return fmt.Errorf("failed to encode stress results: %w", err)
	}

	query := `
		INSERT INTO stress.stress_runs (id, user_id, dataset_id, scenario_name, scenario_params, results, fragility_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query,
		run.ID, run.UserID, run.DatasetID, run.ScenarioName, string(params), string(results), run.FragilityScore).
		Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create stress run: %w", err)
	}
	return nil
}

// GetStressRun retrieves a stress run owned by the user
func (r *Repository) GetStressRun(ctx context.Context, id, userID string) (*models.StressRun, error) {
	query := `SELECT ` + stressRunColumns + `
		FROM stress.stress_runs
		WHERE id = $1 AND user_id = $2`
	run, err := scanStressRun(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stress run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find stress run: %w", err)
	}
	return run, nil
}

// ListStressRuns returns the stress runs of a user, newest first
func (r *Repository) ListStressRuns(ctx context.Context, userID string) ([]models.StressRun, error) {
	query := `SELECT ` + stressRunColumns + `
		FROM stress.stress_runs
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stress runs: %w", err)
	}
	defer rows.Close()

	runs := []models.StressRun{}
	for rows.Next() {
		run, err := scanStressRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stress run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stress runs: %w", err)
	}
	return runs, nil
}

func scanStressRun(row scanner) (*models.StressRun, error) {
	var (
		run             models.StressRun
		datasetID       sql.NullString
		params, results []byte
		score           sql.NullInt64
	)
	err := row.Scan(&run.ID, &run.UserID, &datasetID, &run.ScenarioName, &params, &results, &score, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	run.DatasetID = nullString(datasetID)
	run.FragilityScore = nullInt(score)
	if len(params) > 0 {
		if err := json.Unmarshal(params, &run.ScenarioParams); err != nil {
			return nil, fmt.Errorf("failed to decode scenario params: %w", err)
		}
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &run.Results); err != nil {
			return nil, fmt.Errorf("failed to decode stress results: %w", err)
		}
	}
	return &run, nil
}
