package models

// Webhook event kinds from the payment provider. Only the checkout-session
// paid kind is reconciled; everything else is acknowledged and dropped.
const (
	WebhookCheckoutPaid = "checkout_session.payment.paid"
)

// WebhookEnvelope mirrors the provider's nested webhook payload:
// { data: { attributes: { type, data: { id, attributes: {...} } } } }.
// Decoding is strict at the boundary; ad hoc field access on untyped maps is
// deliberately avoided.
type WebhookEnvelope struct {
	Data struct {
		Attributes struct {
			Type string          `json:"type"`
			Data WebhookResource `json:"data"`
		} `json:"attributes"`
	} `json:"data"`
}

// WebhookResource is the checkout session carried inside a webhook event.
type WebhookResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Payments []WebhookPayment `json:"payments"`
		Metadata EventMetadata    `json:"metadata"`
	} `json:"attributes"`
}

// WebhookPayment is one sub-payment of a checkout session.
type WebhookPayment struct {
	ID         string `json:"id"`
	Attributes struct {
		Amount int64  `json:"amount"`
		Status string `json:"status"`
	} `json:"attributes"`
}

// EventMetadata is the producer-supplied metadata attached at session
// creation. It identifies what the charge was for; the amount itself is never
// taken from here.
type EventMetadata struct {
	UserID string `json:"user_id"`
	ShowID string `json:"show_id"`
	Type   string `json:"type"`
}

// PaymentEvent is the validated, flattened form of a verified webhook
// delivery handed to the reconciler.
type PaymentEvent struct {
	CheckoutID string
	Payments   []WebhookPayment
	Metadata   EventMetadata
}

// Event converts a strictly decoded envelope into the reconciler input.
func (e *WebhookEnvelope) Event() *PaymentEvent {
	return &PaymentEvent{
		CheckoutID: e.Data.Attributes.Data.ID,
		Payments:   e.Data.Attributes.Data.Attributes.Payments,
		Metadata:   e.Data.Attributes.Data.Attributes.Metadata,
	}
}

// CreateCheckoutSessionRequest starts a provider checkout flow. Any price the
// client sends is ignored; the server recomputes the amount from the Show row.
type CreateCheckoutSessionRequest struct {
	ShowID string `json:"show_id"`
	Type   string `json:"type" binding:"required"`
	UserID string `json:"user_id" binding:"required"`
	Price  *int64 `json:"price,omitempty"`
}

// CreateCheckoutSessionResponse carries the provider-hosted payment URL.
type CreateCheckoutSessionResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// VerifyPaymentRequest polls the provider for the caller's latest pending
// payment and reconciles it through the same idempotent path as the webhook.
type VerifyPaymentRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// VerifyPaymentResponse reports the post-reconciliation state.
type VerifyPaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// ClaimTicketRequest attaches an unclaimed ticket to the caller's profile.
type ClaimTicketRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
	UserID     string `json:"user_id" binding:"required"`
}

// ClaimTicketResponse returns the (possibly just claimed) ticket.
type ClaimTicketResponse struct {
	Ticket *Ticket `json:"ticket"`
}
