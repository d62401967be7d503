package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/babysteps/internal/models"
)

// GetSubscription returns the saved plan or the free plan
func (s *Storage) GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	query := `SELECT user_id, plan, status, expires_at, updated_at FROM subscriptions WHERE user_id = ?`

	sub := &models.Subscription{}
	var expiresAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&sub.UserID,
		&sub.Plan,
		&sub.Status,
		&expiresAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FreeSubscription(userID), nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	sub.ExpiresAt = timePtr(expiresAt)
	return sub, nil
}

// UpsertSubscription stores the user's plan
func (s *Storage) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	now := time.Now().UTC()

	query := `
		INSERT INTO subscriptions (user_id, plan, status, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			plan = excluded.plan,
			status = excluded.status,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, sub.UserID, sub.Plan, sub.Status, nullTime(sub.ExpiresAt), now); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	sub.UpdatedAt = now
	return nil
}
