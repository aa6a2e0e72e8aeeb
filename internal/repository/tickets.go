package repository

import (
	"context"
	"database/sql"

	"stagelink/internal/database"
	"stagelink/internal/models"
)

type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// CreateOnce inserts a ticket for the payment unless one already exists.
// ON CONFLICT on the unique payment_id makes concurrent duplicate deliveries
// race safely: one insert wins, the rest observe created=false.
func (r *TicketRepository) CreateOnce(ctx context.Context, ticket *models.Ticket) (bool, error) {
	query := `
		INSERT INTO tickets (show_id, user_id, customer_email, payment_id, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		ticket.ShowID,
		ticket.UserID,
		ticket.CustomerEmail,
		ticket.PaymentID,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt)

	if err == sql.ErrNoRows {
		// Conflict path: the row already existed.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *TicketRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	query := `
		SELECT id, show_id, user_id, customer_email, payment_id, status, created_at
		FROM tickets
		WHERE payment_id = $1`

	err := r.db.QueryRowContext(ctx, query, paymentID).Scan(
		&ticket.ID,
		&ticket.ShowID,
		&ticket.UserID,
		&ticket.CustomerEmail,
		&ticket.PaymentID,
		&ticket.Status,
		&ticket.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return ticket, err
}

// Claim attaches an unowned ticket to a profile. The user_id IS NULL guard
// makes the claim at-most-once under concurrent requests.
func (r *TicketRepository) Claim(ctx context.Context, ticketID, profileID string) (bool, error) {
	query := `
		UPDATE tickets
		SET user_id = $1
		WHERE id = $2 AND user_id IS NULL`

	res, err := r.db.ExecContext(ctx, query, profileID, ticketID)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	return rows > 0, err
}
