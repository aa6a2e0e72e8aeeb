package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "stagelink/internal/errors"
	"stagelink/internal/models"
	"stagelink/internal/service"
	"stagelink/internal/signature"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
	verifier *signature.Verifier
}

func NewHandlers(services *service.Services, verifier *signature.Verifier) *Handlers {
	return &Handlers{
		services: services,
		verifier: verifier,
	}
}

// CreateCheckoutSession - POST /api/checkout-sessions
// Start a provider-hosted payment flow. The amount is computed server-side
// from the show record; the optional client price field is only used to
// detect tampering attempts.
func (h *Handlers) CreateCheckoutSession(c *gin.Context) {
	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Checkout.Create(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrFreeShow):
			c.JSON(http.StatusBadRequest, gin.H{"error": "show is free, no payment needed"})
		case apperrors.IsRetryableData(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.Error("Failed to create checkout session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		}
		return
	}

	c.JSON(http.StatusOK, response)
}

// VerifyPayment - POST /api/payments/verify
// Poll the provider for the caller's latest payment and reconcile it through
// the same idempotent path as the webhook.
func (h *Handlers) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Webhook.Verify(c.Request.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "No payment found"})
			return
		}
		if apperrors.IsRetryableData(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Failed to verify payment", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify payment"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ClaimTicket - POST /api/tickets/claim
// Attach an unclaimed ticket (purchase made before signup) to the caller's
// profile.
func (h *Handlers) ClaimTicket(c *gin.Context) {
	var req models.ClaimTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Tickets.Claim(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrTicketAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case apperrors.IsRetryableData(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.Error("Failed to claim ticket", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to claim ticket"})
		}
		return
	}

	c.JSON(http.StatusOK, response)
}
