package repository

import (
	"context"
	"database/sql"

	"stagelink/internal/database"
	"stagelink/internal/models"
)

type PaymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create records a payment at checkout-session creation. The unique
// constraint on paymongo_checkout_id is the idempotency key for everything
// that follows.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (user_id, paymongo_checkout_id, amount, status, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		payment.UserID,
		payment.CheckoutID,
		payment.Amount,
		payment.Status,
		payment.Description,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

func (r *PaymentRepository) GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error) {
	return r.getOne(ctx, `WHERE paymongo_checkout_id = $1`, checkoutID)
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetLatestByUserID returns the user's most recent payment, used by the
// verification poll endpoint.
func (r *PaymentRepository) GetLatestByUserID(ctx context.Context, userID string) (*models.Payment, error) {
	return r.getOne(ctx, `WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
}

func (r *PaymentRepository) getOne(ctx context.Context, where string, arg any) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `
		SELECT id, user_id, paymongo_checkout_id, paymongo_payment_id,
		       amount, status, description, created_at, updated_at
		FROM payments ` + where

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&payment.ID,
		&payment.UserID,
		&payment.CheckoutID,
		&payment.PaymentID,
		&payment.Amount,
		&payment.Status,
		&payment.Description,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return payment, err
}

// MarkPaid transitions a payment to paid, recording the provider payment id
// and the amount actually charged. The status guard keeps a concurrent or
// replayed delivery from touching an already-paid row, and a paid row never
// regresses to an earlier state.
func (r *PaymentRepository) MarkPaid(ctx context.Context, id, providerPaymentID string, amount int64) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'paid', paymongo_payment_id = $1, amount = $2, updated_at = NOW()
		WHERE id = $3 AND status <> 'paid'`

	res, err := r.db.ExecContext(ctx, query, providerPaymentID, amount, id)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	return rows > 0, err
}

// MarkFailed records a failed charge. Paid rows are left untouched.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id, providerPaymentID string) error {
	query := `
		UPDATE payments
		SET status = 'failed', paymongo_payment_id = $1, updated_at = NOW()
		WHERE id = $2 AND status <> 'paid'`

	_, err := r.db.ExecContext(ctx, query, providerPaymentID, id)
	return err
}

// RevertToPending undoes a paid transition when a post-payment side effect
// could not be applied, so a redelivered webhook re-attempts the whole
// reconciliation instead of short-circuiting on "already paid".
func (r *PaymentRepository) RevertToPending(ctx context.Context, id string) error {
	query := `
		UPDATE payments
		SET status = 'pending', updated_at = NOW()
		WHERE id = $1 AND status = 'paid'`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// MarkPending moves an initialized payment into the awaiting-webhook state.
func (r *PaymentRepository) MarkPending(ctx context.Context, id string) error {
	query := `
		UPDATE payments
		SET status = 'pending', updated_at = NOW()
		WHERE id = $1 AND status = 'initialized'`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
