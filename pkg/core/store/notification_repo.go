package store

import (
	"context"
	"fmt"

	"farmer_assist/pkg/models"
)

// NotificationRepo keeps a log of every alert that was sent.
type NotificationRepo struct {
	db DB
}

func NewNotificationRepo(db DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, category, kind, message, audience, state, district, sender_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		n.ID, string(n.Category), n.Kind, n.Message, string(n.Audience), n.State, n.District, n.SenderID, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// Recent returns the newest notifications that reach state/district.
func (r *NotificationRepo) Recent(ctx context.Context, state, district string, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, category, kind, message, audience, state, district, sender_id, created_at
		FROM notifications
		WHERE audience = 'all'
		   OR (audience = 'state' AND lower(state) = lower($1))
		   OR (audience = 'district' AND lower(state) = lower($1) AND lower(district) = lower($2))
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, state, district, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var category, audience string
		if err := rows.Scan(&n.ID, &category, &n.Kind, &n.Message, &audience, &n.State, &n.District, &n.SenderID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Category = models.NotificationCategory(category)
		n.Audience = models.Audience(audience)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return out, nil
}
