package models

import "time"

// NATS subjects published after reconciliation. Consumers send confirmation
// emails off the request path.
const (
	EventPaymentReconciled     = "payment.reconciled"
	EventPaymentFailed         = "payment.failed"
	EventTicketIssued          = "ticket.issued"
	EventSubscriptionActivated = "subscription.activated"
)

// PaymentReconciledEvent is published once per payment reaching the paid
// state. Replays of the same checkout session do not publish again.
type PaymentReconciledEvent struct {
	PaymentID  string    `json:"payment_id"`
	CheckoutID string    `json:"checkout_id"`
	UserID     string    `json:"user_id"`
	Amount     int64     `json:"amount"`
	Purpose    string    `json:"purpose"`
	Timestamp  time.Time `json:"timestamp"`
}

// PaymentFailedEvent is published when the provider reports a failed charge.
type PaymentFailedEvent struct {
	PaymentID  string    `json:"payment_id"`
	CheckoutID string    `json:"checkout_id"`
	UserID     string    `json:"user_id"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

// TicketIssuedEvent triggers the confirmation email consumer.
type TicketIssuedEvent struct {
	TicketID  string    `json:"ticket_id"`
	ShowID    string    `json:"show_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SubscriptionActivatedEvent triggers the subscription welcome email.
type SubscriptionActivatedEvent struct {
	UserID    string    `json:"user_id"`
	Tier      string    `json:"tier"`
	PeriodEnd time.Time `json:"period_end"`
	Timestamp time.Time `json:"timestamp"`
}
