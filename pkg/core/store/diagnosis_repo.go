package store

import (
	"context"
	"fmt"

	"farmer_assist/pkg/models"
)

// DiagnosisRepo stores diagnosis history in Postgres.
type DiagnosisRepo struct {
	db DB
}

func NewDiagnosisRepo(db DB) *DiagnosisRepo {
	return &DiagnosisRepo{db: db}
}

// Create inserts d. ID and CreatedAt must already be set.
func (r *DiagnosisRepo) Create(ctx context.Context, d *models.Diagnosis) error {
	if r.db == nil {
		return fmt.Errorf("database pool not configured")
	}

	query := `
		INSERT INTO diagnoses (id, app_id, user_id, image_url, query, language, diagnosis, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		d.ID, d.AppID, d.UserID, d.ImageURL, d.Query, d.Language, d.Diagnosis, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save diagnosis: %w", err)
	}
	return nil
}

// ListByUser returns up to limit diagnoses for the user, newest first.
func (r *DiagnosisRepo) ListByUser(ctx context.Context, appID, userID string, limit int) ([]models.Diagnosis, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database pool not configured")
	}

	query := `
		SELECT id, app_id, user_id, image_url, query, language, diagnosis, created_at
		FROM diagnoses
		WHERE app_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, appID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnoses: %w", err)
	}
	defer rows.Close()

	out := []models.Diagnosis{}
	for rows.Next() {
		var d models.Diagnosis
		if err := rows.Scan(&d.ID, &d.AppID, &d.UserID, &d.ImageURL, &d.Query, &d.Language, &d.Diagnosis, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diagnosis: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read diagnoses: %w", err)
	}
	return out, nil
}
