package service

import (
	"context"
	"fmt"

	apperrors "stagelink/internal/errors"
	"stagelink/internal/external"
	"stagelink/internal/logger"
	"stagelink/internal/metrics"
	"stagelink/internal/models"
	"stagelink/internal/pricing"
)

// Flat prices for non-ticket purchases, in the same currency unit as show
// prices.
const (
	subscriptionPrice = 399
	featuredShowPrice = 499
)

// CheckoutService starts provider checkout sessions. The amount charged is
// always computed here from server-held data; a client-submitted price is
// never trusted.
type CheckoutService struct {
	payments PaymentStore
	profiles ProfileStore
	shows    ShowStore
	provider CheckoutProvider
	urls     CheckoutURLs
}

func NewCheckoutService(payments PaymentStore, profiles ProfileStore, shows ShowStore, provider CheckoutProvider, urls CheckoutURLs) *CheckoutService {
	return &CheckoutService{
		payments: payments,
		profiles: profiles,
		shows:    shows,
		provider: provider,
		urls:     urls,
	}
}

func (s *CheckoutService) Create(ctx context.Context, req *models.CreateCheckoutSessionRequest) (*models.CreateCheckoutSessionResponse, error) {
	log := logger.WithContext(ctx)

	profile, err := s.profiles.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, apperrors.ErrProfileNotFound
	}

	amount, description, err := s.priceFor(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Price != nil && *req.Price != amount {
		// Evidence of a tampering attempt; the request proceeds with the
		// authoritative amount.
		log.Warn("Client-submitted price ignored",
			"submitted", *req.Price,
			"computed", amount,
			"show_id", req.ShowID,
			"user_id", req.UserID)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, external.CheckoutSessionAttributes{
		LineItems: []external.CheckoutLineItem{{
			Currency:    "PHP",
			Amount:      amount,
			Description: description,
			Name:        "StageLink Payment",
			Quantity:    1,
		}},
		PaymentMethodTypes: []string{"card", "gcash", "paymaya", "grab_pay"},
		SendEmailReceipt:   true,
		ShowDescription:    true,
		ShowLineItems:      true,
		SuccessURL:         s.urls.Success,
		CancelURL:          s.urls.Cancel,
		Description:        description,
		Metadata: models.EventMetadata{
			UserID: req.UserID,
			ShowID: req.ShowID,
			Type:   req.Type,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	payment := &models.Payment{
		UserID:      req.UserID,
		CheckoutID:  session.ID,
		Amount:      amount,
		Status:      models.PaymentInitialized,
		Description: &description,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	metrics.CheckoutSessions.WithLabelValues(req.Type).Inc()
	log.Info("Checkout session created",
		"checkout_id", session.ID,
		"type", req.Type,
		"amount", amount)

	return &models.CreateCheckoutSessionResponse{CheckoutURL: session.Attributes.CheckoutURL}, nil
}

// priceFor computes the authoritative charge for the requested purchase.
func (s *CheckoutService) priceFor(ctx context.Context, req *models.CreateCheckoutSessionRequest) (int64, string, error) {
	switch req.Type {
	case models.PurchaseTicket:
		show, err := s.resolveShow(ctx, req.ShowID)
		if err != nil {
			return 0, "", err
		}
		fee := pricing.ReservationFee(show.Price, show.Niche)
		if fee == 0 {
			return 0, "", apperrors.ErrFreeShow
		}
		return fee, "Ticket: " + show.Title, nil

	case models.PurchaseFeaturedShow:
		show, err := s.resolveShow(ctx, req.ShowID)
		if err != nil {
			return 0, "", err
		}
		return featuredShowPrice, "Featured listing: " + show.Title, nil

	case models.PurchaseSubscription:
		return subscriptionPrice, "StageLink Pro Subscription", nil

	default:
		return 0, "", fmt.Errorf("unsupported purchase type %q", req.Type)
	}
}

func (s *CheckoutService) resolveShow(ctx context.Context, showID string) (*models.Show, error) {
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
