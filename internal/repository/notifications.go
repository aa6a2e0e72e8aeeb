package repository

import (
	"context"

	"stagelink/internal/database"
	"stagelink/internal/models"
)

type NotificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, actor_id, type, title, message, link)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		n.RecipientID,
		n.ActorID,
		n.Type,
		n.Title,
		n.Message,
		n.Link,
	).Scan(&n.ID, &n.CreatedAt)
}
