package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"stagelink/internal/external"
	"stagelink/internal/models"
	"stagelink/internal/repository"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	repos *repository.Repositories
	email *external.EmailClient
}

func NewHandlers(repos *repository.Repositories, email *external.EmailClient) *Handlers {
	return &Handlers{
		repos: repos,
		email: email,
	}
}

// HandleTicketIssued sends the ticket confirmation email. The message is
// acked even when the email fails; delivery is best effort and a durable
// retry would double-send on partial failures.
func (h *Handlers) HandleTicketIssued(m *stan.Msg) {
	var event models.TicketIssuedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal ticket issued event", "error", err)
		m.Ack()
		return
	}

	ctx := context.Background()

	profile, err := h.repos.Profiles.GetByUserID(ctx, event.UserID)
	if err != nil || profile == nil {
		slog.Error("Failed to resolve profile for ticket email",
			"user_id", event.UserID, "error", err)
		m.Ack()
		return
	}

	show, err := h.repos.Shows.GetByID(ctx, event.ShowID)
	if err != nil || show == nil {
		slog.Error("Failed to resolve show for ticket email",
			"show_id", event.ShowID, "error", err)
		m.Ack()
		return
	}

	subject := fmt.Sprintf("Your ticket for %s", show.Title)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your reservation for <strong>%s</strong> is confirmed. Show your ticket id at the door:</p><p><code>%s</code></p>",
		profile.DisplayName, show.Title, event.TicketID)

	if err := h.email.Send(ctx, profile.Email, subject, html); err != nil {
		slog.Error("Failed to send ticket email",
			"ticket_id", event.TicketID, "to", profile.Email, "error", err)
	} else {
		slog.Info("Ticket email sent", "ticket_id", event.TicketID, "to", profile.Email)
	}

	m.Ack()
}

// HandleSubscriptionActivated sends the subscription welcome email.
func (h *Handlers) HandleSubscriptionActivated(m *stan.Msg) {
	var event models.SubscriptionActivatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal subscription activated event", "error", err)
		m.Ack()
		return
	}

	ctx := context.Background()

	profile, err := h.repos.Profiles.GetByUserID(ctx, event.UserID)
	if err != nil || profile == nil {
		slog.Error("Failed to resolve profile for subscription email",
			"user_id", event.UserID, "error", err)
		m.Ack()
		return
	}

	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your StageLink Pro subscription is active until %s.</p>",
		profile.DisplayName, event.PeriodEnd.Format("January 2, 2006"))

	if err := h.email.Send(ctx, profile.Email, "Welcome to StageLink Pro", html); err != nil {
		slog.Error("Failed to send subscription email",
			"user_id", event.UserID, "to", profile.Email, "error", err)
	} else {
		slog.Info("Subscription email sent", "user_id", event.UserID, "to", profile.Email)
	}

	m.Ack()
}

// HandlePaymentFailed tells the buyer their charge did not go through.
func (h *Handlers) HandlePaymentFailed(m *stan.Msg) {
	var event models.PaymentFailedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment failed event", "error", err)
		m.Ack()
		return
	}

	ctx := context.Background()

	profile, err := h.repos.Profiles.GetByUserID(ctx, event.UserID)
	if err != nil || profile == nil {
		slog.Error("Failed to resolve profile for payment failed email",
			"user_id", event.UserID, "error", err)
		m.Ack()
		return
	}

	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your recent payment did not go through (%s). No charge was made; you can try again from your dashboard.</p>",
		profile.DisplayName, event.Reason)

	if err := h.email.Send(ctx, profile.Email, "Payment unsuccessful", html); err != nil {
		slog.Error("Failed to send payment failed email",
			"payment_id", event.PaymentID, "to", profile.Email, "error", err)
	} else {
		slog.Info("Payment failed email sent", "payment_id", event.PaymentID, "to", profile.Email)
	}

	m.Ack()
}
