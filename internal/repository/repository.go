package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/stress-service/internal/models"
)

// ErrNotFound is returned when a record does not exist or belongs to another user
var ErrNotFound = errors.New("not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Counts returns the number of datasets, stress runs and analyses of a user
func (r *Repository) Counts(ctx context.Context, userID string) (*models.Counts, error) {
	counts := &models.Counts{}
	query := `
		SELECT
			(SELECT count(*) FROM stress.financial_datasets WHERE user_id = $1),
			(SELECT count(*) FROM stress.stress_runs WHERE user_id = $1),
			(SELECT count(*) FROM stress.disclosure_analyses WHERE user_id = $1)`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&counts.Datasets, &counts.StressRuns, &counts.Analyses)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	return counts, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
