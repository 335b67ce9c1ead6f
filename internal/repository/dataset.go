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

const datasetColumns = `id, user_id, upload_id, name, revenue, ebitda, debt, cash, equity,
		working_capital, interest_rate, monthly_burn, raw_metadata, created_at, updated_at`

// CreateDataset stores a new financial dataset
func (r *Repository) CreateDataset(ctx context.Context, ds *models.Dataset) error {
	if ds.ID == "" {
		ds.ID = uuid.NewString()
	}
	if ds.RawMetadata == nil {
		ds.RawMetadata = map[string]interface{}{}
	}
	metadata, err := json.Marshal(ds.RawMetadata)
	if err != nil {
		return fmt.Errorf("failed to encode dataset metadata: %w", err)
	}

	query := `
		INSERT INTO stress.financial_datasets (id, user_id, upload_id, name, revenue, ebitda, debt, cash, equity,
			working_capital, interest_rate, monthly_burn, raw_metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		ds.ID, ds.UserID, ds.UploadID, ds.Name, ds.Revenue, ds.EBITDA, ds.Debt, ds.Cash, ds.Equity,
		ds.WorkingCapital, ds.InterestRate, ds.MonthlyBurn, string(metadata)).
		Scan(&ds.CreatedAt, &ds.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

// GetDataset retrieves a dataset owned by the user
func (r *Repository) GetDataset(ctx context.Context, id, userID string) (*models.Dataset, error) {
	query := `SELECT ` + datasetColumns + `
		FROM stress.financial_datasets
		WHERE id = $1 AND user_id = $2`
	ds, err := scanDataset(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dataset: %w", err)
	}
	return ds, nil
}

// ListDatasets returns the datasets of a user, newest first
func (r *Repository) ListDatasets(ctx context.Context, userID string) ([]models.Dataset, error) {
	query := `SELECT ` + datasetColumns + `
		FROM stress.financial_datasets
		WHERE user_id = $1
		ORDER BY created_at DESC`
	return r.queryDatasets(ctx, query, userID)
}

// ListAllDatasets returns every stored dataset, oldest first
func (r *Repository) ListAllDatasets(ctx context.Context) ([]models.Dataset, error) {
	query := `SELECT ` + datasetColumns + `
		FROM stress.financial_datasets
		ORDER BY created_at`
	return r.queryDatasets(ctx, query)
}

func (r *Repository) queryDatasets(ctx context.Context, query string, args ...interface{}) ([]models.Dataset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := []models.Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, *ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return datasets, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDataset(row scanner) (*models.Dataset, error) {
	var (
		ds                                              models.Dataset
		uploadID, name                                  sql.NullString
		revenue, ebitda, debt, cash, equity, workingCap sql.NullFloat64
		rate, burn                                      sql.NullFloat64
		metadata                                        []byte
	)
	err := row.Scan(&ds.ID, &ds.UserID, &uploadID, &name, &revenue, &ebitda, &debt, &cash, &equity,
		&workingCap, &rate, &burn, &metadata, &ds.CreatedAt, &ds.UpdatedAt)
	if err != nil {
		return nil, err
	}

	ds.UploadID = nullString(uploadID)
	ds.Name = nullString(name)
	ds.Revenue = nullFloat(revenue)
	ds.EBITDA = nullFloat(ebitda)
	ds.Debt = nullFloat(debt)
	ds.Cash = nullFloat(cash)
	ds.Equity = nullFloat(equity)
	ds.WorkingCapital = nullFloat(workingCap)
	ds.InterestRate = nullFloat(rate)
	ds.MonthlyBurn = nullFloat(burn)
	ds.RawMetadata = map[string]interface{}{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &ds.RawMetadata); err != nil {
			return nil, fmt.Errorf("failed to decode dataset metadata: %w", err)
		}
	}
	return &ds, nil
}
