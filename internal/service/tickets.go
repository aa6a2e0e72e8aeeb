package service

import (
	"context"
	"fmt"

	apperrors "stagelink/internal/errors"
	"stagelink/internal/logger"
	"stagelink/internal/models"
)

// TicketService claims tickets bought before the buyer had an account. The
// ticket row exists with a null user id until the matching profile shows up.
type TicketService struct {
	payments PaymentStore
	profiles ProfileStore
	tickets  TicketStore
}

func NewTicketService(payments PaymentStore, profiles ProfileStore, tickets TicketStore) *TicketService {
	return &TicketService{
		payments: payments,
		profiles: profiles,
		tickets:  tickets,
	}
}

func (s *TicketService) Claim(ctx context.Context, req *models.ClaimTicketRequest) (*models.ClaimTicketResponse, error) {
	payment, err := s.payments.GetByID(ctx, req.PaymentRef)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil || payment.Status != models.PaymentPaid {
		return nil, apperrors.ErrPaymentNotFound
	}

	ticket, err := s.tickets.GetByPaymentID(ctx, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket == nil {
		return nil, apperrors.ErrPaymentNotFound
	}

	profile, err := s.profiles.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, apperrors.ErrProfileNotFound
	}

	if ticket.UserID != nil {
		if *ticket.UserID == profile.ID {
			return &models.ClaimTicketResponse{Ticket: ticket}, nil
		}
		return nil, apperrors.ErrTicketAlreadyClaimed
	}

	claimed, err := s.tickets.Claim(ctx, ticket.ID, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim ticket: %w", err)
	}
	if !claimed {
		// Lost a race with another claim; reload to see who owns it now.
		ticket, err = s.tickets.GetByPaymentID(ctx, payment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload ticket: %w", err)
		}
		if ticket == nil || ticket.UserID == nil || *ticket.UserID != profile.ID {
			return nil, apperrors.ErrTicketAlreadyClaimed
		}
		return &models.ClaimTicketResponse{Ticket: ticket}, nil
	}

	ticket.UserID = &profile.ID
	logger.WithContext(ctx).Info("Ticket claimed",
		"ticket_id", ticket.ID,
		"profile_id", profile.ID,
		"payment_id", payment.ID)

	return &models.ClaimTicketResponse{Ticket: ticket}, nil
}
