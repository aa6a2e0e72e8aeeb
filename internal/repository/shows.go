package repository

import (
	"context"
	"database/sql"

	"stagelink/internal/database"
	"stagelink/internal/models"
)

type ShowRepository struct {
	db *database.DB
}

func NewShowRepository(db *database.DB) *ShowRepository {
	return &ShowRepository{db: db}
}

func (r *ShowRepository) GetByID(ctx context.Context, id string) (*models.Show, error) {
	show := &models.Show{}
	query := `
		SELECT id, title, price, niche, producer_id, is_featured, venue, date
		FROM shows
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&show.ID,
		&show.Title,
		&show.Price,
		&show.Niche,
		&show.ProducerID,
		&show.IsFeatured,
		&show.Venue,
		&show.Date,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return show, err
}

// MarkFeatured flips the featured flag after a featured_show payment clears.
// This is the only show mutation the payment core performs.
func (r *ShowRepository) MarkFeatured(ctx context.Context, id string) error {
	query := `UPDATE shows SET is_featured = TRUE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
