package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "stagelink/internal/errors"
	"stagelink/internal/logger"
	"stagelink/internal/metrics"
	"stagelink/internal/models"
)

// WebhookService reconciles verified payment events into durable Payment,
// Ticket and Subscription state. Idempotency rests on storage constraints:
// the unique checkout id on payments and the unique payment id on tickets,
// so at-least-once delivery always converges to the same end state.
type WebhookService struct {
	payments      PaymentStore
	profiles      ProfileStore
	shows         ShowStore
	tickets       TicketStore
	subscriptions SubscriptionStore
	notifier      *Notifier
	reconciled    ReconciledCache
	provider      CheckoutProvider
}

func NewWebhookService(payments PaymentStore, profiles ProfileStore, shows ShowStore,
	tickets TicketStore, subscriptions SubscriptionStore, notifier *Notifier,
	reconciled ReconciledCache, provider CheckoutProvider) *WebhookService {
	return &WebhookService{
		payments:      payments,
		profiles:      profiles,
		shows:         shows,
		tickets:       tickets,
		subscriptions: subscriptions,
		notifier:      notifier,
		reconciled:    reconciled,
		provider:      provider,
	}
}

// ReconcileResult reports what a delivery did.
type ReconcileResult struct {
	Replayed bool
	Failed   bool
	Purpose  string
}

// Reconcile applies one verified payment event exactly once.
//
// Ordering is fixed: find-or-create the payment row, resolve the acting
// profile, transition the payment, then apply the purchase side effect.
// Ticket and subscription writes never precede the payment reaching paid,
// and any side-effect failure reverts the payment to pending so a
// redelivered webhook can re-attempt.
func (s *WebhookService) Reconcile(ctx context.Context, event *models.PaymentEvent) (*ReconcileResult, error) {
	log := logger.WithContext(ctx)

	if s.reconciled != nil && s.reconciled.IsReconciled(ctx, event.CheckoutID) {
		log.Info("Checkout session already reconciled, short-circuiting",
			"checkout_id", event.CheckoutID)
		metrics.WebhookDeliveries.WithLabelValues("replayed").Inc()
		return &ReconcileResult{Replayed: true}, nil
	}

	payment, err := s.payments.GetByCheckoutID(ctx, event.CheckoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	if payment != nil && payment.Status == models.PaymentPaid {
		s.markReconciled(ctx, event.CheckoutID)
		metrics.WebhookDeliveries.WithLabelValues("replayed").Inc()
		return &ReconcileResult{Replayed: true}, nil
	}

	profile, err := s.resolveProfile(ctx, event.Metadata.UserID)
	if err != nil {
		return nil, err
	}

	if payment == nil {
		payment, err = s.createFromEvent(ctx, event, profile)
		if err != nil {
			return nil, err
		}
	}

	sub := dominantPayment(event.Payments)
	if sub == nil {
		return nil, fmt.Errorf("%w: event carries no payments", apperrors.ErrEventIgnored)
	}

	if sub.Attributes.Status != models.PaymentPaid {
		if err := s.payments.MarkFailed(ctx, payment.ID, sub.ID); err != nil {
			return nil, fmt.Errorf("failed to mark payment failed: %w", err)
		}
		s.notifier.PaymentFailed(ctx, payment, sub.Attributes.Status)
		metrics.WebhookDeliveries.WithLabelValues("failed_charge").Inc()
		return &ReconcileResult{Failed: true}, nil
	}

	applied, err := s.payments.MarkPaid(ctx, payment.ID, sub.ID, sub.Attributes.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment paid: %w", err)
	}
	if !applied {
		// A concurrent delivery won the transition.
		s.markReconciled(ctx, event.CheckoutID)
		metrics.WebhookDeliveries.WithLabelValues("replayed").Inc()
		return &ReconcileResult{Replayed: true}, nil
	}
	payment.Status = models.PaymentPaid
	payment.Amount = sub.Attributes.Amount

	purpose := event.Metadata.Type
	if purpose == "" {
		purpose = models.PurchaseSubscription
	}

	if err := s.applyPurchase(ctx, purpose, event, payment, profile); err != nil {
		// Leave the row retryable rather than paid-without-effect.
		if revertErr := s.payments.RevertToPending(ctx, payment.ID); revertErr != nil {
			log.Error("Failed to revert payment after side-effect failure",
				"error", revertErr, "payment_id", payment.ID)
		}
		return nil, err
	}

	s.notifier.PaymentReconciled(ctx, payment, purpose)
	s.markReconciled(ctx, event.CheckoutID)
	metrics.WebhookDeliveries.WithLabelValues("reconciled").Inc()

	log.Info("Payment reconciled",
		"payment_id", payment.ID,
		"checkout_id", event.CheckoutID,
		"purpose", purpose,
		"amount", payment.Amount)

	return &ReconcileResult{Purpose: purpose}, nil
}

func (s *WebhookService) applyPurchase(ctx context.Context, purpose string, event *models.PaymentEvent, payment *models.Payment, profile *models.Profile) error {
	switch purpose {
	case models.PurchaseTicket:
		return s.issueTicket(ctx, event.Metadata.ShowID, payment, profile)
	case models.PurchaseSubscription:
		return s.activateSubscription(ctx, profile)
	case models.PurchaseFeaturedShow:
		return s.featureShow(ctx, event.Metadata.ShowID, profile)
	default:
		logger.WithContext(ctx).Warn("Unknown purchase type, payment recorded without side effect",
			"type", purpose, "payment_id", payment.ID)
		return nil
	}
}

func (s *WebhookService) issueTicket(ctx context.Context, showID string, payment *models.Payment, profile *models.Profile) error {
	show, err := s.resolveShow(ctx, showID)
	if err != nil {
		return err
	}

	ticket := &models.Ticket{
		ShowID:        show.ID,
		UserID:        &profile.ID,
		CustomerEmail: &profile.Email,
		PaymentID:     payment.ID,
		Status:        models.TicketConfirmed,
	}

	created, err := s.tickets.CreateOnce(ctx, ticket)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	if !created {
		// Duplicate delivery already issued the ticket.
		return nil
	}

	metrics.TicketsIssued.Inc()
	s.notifier.TicketIssued(ctx, profile, show, ticket)
	return nil
}

func (s *WebhookService) activateSubscription(ctx context.Context, profile *models.Profile) error {
	now := time.Now()
	sub := &models.Subscription{
		UserID:             profile.UserID,
		Status:             "active",
		Tier:               "pro",
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}

	if err := s.subscriptions.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	s.notifier.SubscriptionActivated(ctx, profile, sub)
	return nil
}

func (s *WebhookService) featureShow(ctx context.Context, showID string, profile *models.Profile) error {
	show, err := s.resolveShow(ctx, showID)
	if err != nil {
		return err
	}

	if err := s.shows.MarkFeatured(ctx, show.ID); err != nil {
		return fmt.Errorf("failed to feature show: %w", err)
	}

	s.notifier.ShowFeatured(ctx, profile, show)
	return nil
}

func (s *WebhookService) resolveProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, apperrors.ErrProfileNotFound
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, apperrors.ErrProfileNotFound
	}

	return profile, nil
}

func (s *WebhookService) resolveShow(ctx context.Context, showID string) (*models.Show, error) {
	if showID == "" {
		return nil, apperrors.ErrShowNotFound
	}

	show, err := s.shows.GetByID(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to load show: %w", err)
	}
	if show == nil {
		return nil, apperrors.ErrShowNotFound
	}

	return show, nil
}

// createFromEvent covers a webhook arriving for a session this service never
// recorded, e.g. one created directly in the provider dashboard. The row is
// created pending so the normal transition applies.
func (s *WebhookService) createFromEvent(ctx context.Context, event *models.PaymentEvent, profile *models.Profile) (*models.Payment, error) {
	payment := &models.Payment{
		UserID:     profile.UserID,
		CheckoutID: event.CheckoutID,
		Status:     models.PaymentPending,
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		// A concurrent delivery may have inserted it first.
		existing, getErr := s.payments.GetByCheckoutID(ctx, event.CheckoutID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	return payment, nil
}

// Verify polls the provider for the user's latest payment and runs it through
// the same reconciliation path as a webhook delivery.
func (s *WebhookService) Verify(ctx context.Context, userID string) (*models.VerifyPaymentResponse, error) {
	payment, err := s.payments.GetLatestByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, apperrors.ErrPaymentNotFound
	}

	if payment.Status == models.PaymentPaid {
		return &models.VerifyPaymentResponse{
			Status:  models.PaymentPaid,
			Message: "Payment successful",
			Type:    purposeFromDescription(payment.Description),
		}, nil
	}

	session, err := s.provider.GetCheckoutSession(ctx, payment.CheckoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider: %w", err)
	}

	if paidPayment(session.Attributes.Payments) == nil {
		if err := s.payments.MarkPending(ctx, payment.ID); err != nil {
			return nil, fmt.Errorf("failed to mark payment pending: %w", err)
		}
		return &models.VerifyPaymentResponse{
			Status:  models.PaymentPending,
			Message: "Payment not completed yet",
		}, nil
	}

	event := &models.PaymentEvent{
		CheckoutID: session.ID,
		Payments:   session.Attributes.Payments,
		Metadata:   session.Attributes.Metadata,
	}

	result, err := s.Reconcile(ctx, event)
	if err != nil {
		return nil, err
	}
	if result.Failed {
		return &models.VerifyPaymentResponse{
			Status:  models.PaymentFailed,
			Message: "Payment failed",
		}, nil
	}

	purpose := result.Purpose
	if purpose == "" {
		purpose = purposeFromDescription(payment.Description)
	}

	return &models.VerifyPaymentResponse{
		Status:  models.PaymentPaid,
		Message: "Payment successful",
		Type:    purpose,
	}, nil
}

func (s *WebhookService) markReconciled(ctx context.Context, checkoutID string) {
	if s.reconciled == nil {
		return
	}
	if err := s.reconciled.MarkReconciled(ctx, checkoutID); err != nil {
		logger.WithContext(ctx).Warn("Failed to cache reconciled checkout id",
			"error", err, "checkout_id", checkoutID)
	}
}

// dominantPayment picks the sub-payment that decides the session outcome: a
// paid one if any exists, otherwise the first reported.
func dominantPayment(payments []models.WebhookPayment) *models.WebhookPayment {
	if p := paidPayment(payments); p != nil {
		return p
	}
	if len(payments) > 0 {
		return &payments[0]
	}
	return nil
}

func paidPayment(payments []models.WebhookPayment) *models.WebhookPayment {
	for i := range payments {
		if payments[i].Attributes.Status == models.PaymentPaid {
			return &payments[i]
		}
	}
	return nil
}

func purposeFromDescription(description *string) string {
	if description != nil && strings.HasPrefix(*description, "Ticket") {
		return models.PurchaseTicket
	}
	return models.PurchaseSubscription
}
