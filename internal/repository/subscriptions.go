package repository

import (
	"context"

	"stagelink/internal/database"
	"stagelink/internal/models"
)

type SubscriptionRepository struct {
	db *database.DB
}

func NewSubscriptionRepository(db *database.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Upsert activates or extends the user's subscription. One row per user;
// re-applying the same payment event lands on the same end state.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, status, tier, current_period_start, current_period_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET status = EXCLUDED.status,
		    tier = EXCLUDED.tier,
		    current_period_start = EXCLUDED.current_period_start,
		    current_period_end = EXCLUDED.current_period_end,
		    updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		sub.UserID,
		sub.Status,
		sub.Tier,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
	)

	return err
}
