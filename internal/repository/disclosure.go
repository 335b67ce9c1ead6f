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

const disclosureColumns = `id, user_id, upload_id, file_name, disclosure_risk_score, sentiment_score, results, created_at`

// CreateDisclosureAnalysis stores a disclosure analysis
func (r *Repository) CreateDisclosureAnalysis(ctx context.Context, a *models.DisclosureAnalysis) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	results, err := json.Marshal(a.Results)
	if err != nil {
		return fmt.Errorf("failed to encode disclosure results: %w", err)
	}

	query := `
		INSERT INTO stress.disclosure_analyses (id, user_id, upload_id, file_name, disclosure_risk_score, sentiment_score, results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query,
		a.ID, a.UserID, a.UploadID, a.FileName, a.DisclosureRiskScore, a.SentimentScore, string(results)).
		Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create disclosure analysis: %w", err)
	}
	return nil
}

// GetDisclosureAnalysis retrieves a disclosure analysis owned by the user
func (r *Repository) GetDisclosureAnalysis(ctx context.Context, id, userID string) (*models.DisclosureAnalysis, error) {
	query := `SELECT ` + disclosureColumns + `
		FROM stress.disclosure_analyses
		WHERE id = $1 AND user_id = $2`
	a, err := scanDisclosure(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("disclosure analysis %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find disclosure analysis: %w", err)
	}
	return a, nil
}

// ListDisclosureAnalyses returns the analyses of a user, newest first
func (r *Repository) ListDisclosureAnalyses(ctx context.Context, userID string) ([]models.DisclosureAnalysis, error) {
	query := `SELECT ` + disclosureColumns + `
		FROM stress.disclosure_analyses
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disclosure analyses: %w", err)
	}
	defer rows.Close()

	analyses := []models.DisclosureAnalysis{}
	for rows.Next() {
		a, err := scanDisclosure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan disclosure analysis: %w", err)
		}
		analyses = append(analyses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list disclosure analyses: %w", err)
	}
	return analyses, nil
}

func scanDisclosure(row scanner) (*models.DisclosureAnalysis, error) {
	var (
		a               models.DisclosureAnalysis
		uploadID, name  sql.NullString
		risk, sentiment sql.NullFloat64
		results         []byte
	)
	err := row.Scan(&a.ID, &a.UserID, &uploadID, &name, &risk, &sentiment, &results, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.UploadID = nullString(uploadID)
	a.FileName = nullString(name)
	a.DisclosureRiskScore = nullFloat(risk)
	a.SentimentScore = nullFloat(sentiment)
	if len(results) > 0 {
		if err := json.Unmarshal(results, &a.Results); err != nil {
			return nil, fmt.Errorf("failed to decode disclosure results: %w", err)
		}
	}
	return &a, nil
}
