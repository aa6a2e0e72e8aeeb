package service

import (
	"context"
	"fmt"
	"time"

	"stagelink/internal/logger"
	"stagelink/internal/models"
)

// Notifier fires post-reconciliation side effects: an in-app notification
// row and a NATS event that the email consumer picks up. Everything here is
// best effort; errors are logged and swallowed so an already-reconciled
// payment never reports failure to the provider.
type Notifier struct {
	notifications NotificationStore
	nats          Publisher
}

func NewNotifier(notifications NotificationStore, nats Publisher) *Notifier {
	return &Notifier{
		notifications: notifications,
		nats:          nats,
	}
}

func (n *Notifier) TicketIssued(ctx context.Context, profile *models.Profile, show *models.Show, ticket *models.Ticket) {
	link := "/show/" + show.ID
	n.insert(ctx, &models.Notification{
		RecipientID: profile.ID,
		Type:        "ticket_confirmed",
		Title:       "Ticket Confirmed",
		Message:     fmt.Sprintf("You're going to %s! Your reservation is confirmed.", show.Title),
		Link:        &link,
	})

	n.publish(ctx, models.EventTicketIssued, models.TicketIssuedEvent{
		TicketID:  ticket.ID,
		ShowID:    show.ID,
		UserID:    profile.UserID,
		Timestamp: time.Now(),
	})
}

func (n *Notifier) SubscriptionActivated(ctx context.Context, profile *models.Profile, sub *models.Subscription) {
	n.insert(ctx, &models.Notification{
		RecipientID: profile.ID,
		Type:        "subscription_activated",
		Title:       "Welcome to StageLink Pro",
		Message:     "Your pro subscription is active.",
	})

	n.publish(ctx, models.EventSubscriptionActivated, models.SubscriptionActivatedEvent{
		UserID:    profile.UserID,
		Tier:      sub.Tier,
		PeriodEnd: sub.CurrentPeriodEnd,
		Timestamp: time.Now(),
	})
}

func (n *Notifier) ShowFeatured(ctx context.Context, profile *models.Profile, show *models.Show) {
	link := "/show/" + show.ID
	n.insert(ctx, &models.Notification{
		RecipientID: profile.ID,
		Type:        "show_featured",
		Title:       "Show Featured",
		Message:     fmt.Sprintf("%s is now featured on StageLink.", show.Title),
		Link:        &link,
	})
}

func (n *Notifier) PaymentFailed(ctx context.Context, payment *models.Payment, reason string) {
	n.publish(ctx, models.EventPaymentFailed, models.PaymentFailedEvent{
		PaymentID:  payment.ID,
		CheckoutID: payment.CheckoutID,
		UserID:     payment.UserID,
		Reason:     reason,
		Timestamp:  time.Now(),
	})
}

func (n *Notifier) PaymentReconciled(ctx context.Context, payment *models.Payment, purpose string) {
	n.publish(ctx, models.EventPaymentReconciled, models.PaymentReconciledEvent{
		PaymentID:  payment.ID,
		CheckoutID: payment.CheckoutID,
		UserID:     payment.UserID,
		Amount:     payment.Amount,
		Purpose:    purpose,
		Timestamp:  time.Now(),
	})
}

func (n *Notifier) insert(ctx context.Context, notification *models.Notification) {
	if n.notifications == nil {
		return
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		logger.WithContext(ctx).Error("Failed to insert notification",
			"error", err,
			"recipient_id", notification.RecipientID,
			"type", notification.Type)
	}
}

func (n *Notifier) publish(ctx context.Context, subject string, event any) {
	if n.nats == nil {
		return
	}
	if err := n.nats.Publish(subject, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}
