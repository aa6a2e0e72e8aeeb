package models

import (
	"time"
)

// Payment statuses. A payment never regresses from paid.
const (
	PaymentInitialized = "initialized"
	PaymentPending     = "pending"
	PaymentPaid        = "paid"
	PaymentFailed      = "failed"
)

// Ticket statuses.
const (
	TicketConfirmed = "confirmed"
	TicketCancelled = "cancelled"
)

// Checkout purposes carried in provider metadata.
const (
	PurchaseTicket       = "ticket"
	PurchaseSubscription = "subscription"
	PurchaseFeaturedShow = "featured_show"
)

// Show is the producer-owned listing. The payment core only reads it: the
// stored price and the producer niche are the sole inputs to the reservation
// fee, regardless of what any client submits.
type Show struct {
	ID         string     `json:"id" db:"id"`
	Title      string     `json:"title" db:"title"`
	Price      int64      `json:"price" db:"price"`
	Niche      string     `json:"niche" db:"niche"`
	ProducerID string     `json:"producer_id" db:"producer_id"`
	IsFeatured bool       `json:"is_featured" db:"is_featured"`
	Venue      *string    `json:"venue" db:"venue"`
	Date       *time.Time `json:"date" db:"date"`
}

// Profile links an auth user to their public identity.
type Profile struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Email       string    `json:"email" db:"email"`
	DisplayName string    `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Payment is one reconciled charge attempt. CheckoutID is the provider
// checkout session id and carries a uniqueness constraint: it is the
// idempotency key that deduplicates repeated webhook deliveries.
type Payment struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	CheckoutID  string    `json:"paymongo_checkout_id" db:"paymongo_checkout_id"`
	PaymentID   *string   `json:"paymongo_payment_id" db:"paymongo_payment_id"`
	Amount      int64     `json:"amount" db:"amount"`
	Status      string    `json:"status" db:"status"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Ticket is a confirmed reservation. UserID is nullable: a purchase made
// before account creation is claimed later by email match. PaymentID carries
// a uniqueness constraint so one payment yields at most one ticket.
type Ticket struct {
	ID            string    `json:"id" db:"id"`
	ShowID        string    `json:"show_id" db:"show_id"`
	UserID        *string   `json:"user_id" db:"user_id"`
	CustomerEmail *string   `json:"customer_email" db:"customer_email"`
	PaymentID     string    `json:"payment_id" db:"payment_id"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Subscription is the pro-tier membership, one row per user.
type Subscription struct {
	UserID             string    `json:"user_id" db:"user_id"`
	Status             string    `json:"status" db:"status"`
	Tier               string    `json:"tier" db:"tier"`
	CurrentPeriodStart time.Time `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end" db:"current_period_end"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Notification is an append-only in-app message. Writes are best effort and
// never affect payment or ticket state.
type Notification struct {
	ID          string    `json:"id" db:"id"`
	RecipientID string    `json:"recipient_id" db:"recipient_id"`
	ActorID     *string   `json:"actor_id" db:"actor_id"`
	Type        string    `json:"type" db:"type"`
	Title       string    `json:"title" db:"title"`
	Message     string    `json:"message" db:"message"`
	Link        *string   `json:"link" db:"link"`
	Read        bool      `json:"read" db:"read"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
