package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "stagelink/internal/errors"
	"stagelink/internal/logger"
	"stagelink/internal/metrics"
	"stagelink/internal/models"
	"stagelink/internal/signature"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody caps inbound payload size. Provider events are small.
const maxWebhookBody = 1 << 20

// HandlePaymentWebhook - POST /webhooks/paymongo
// The full delivery pipeline: verify the signature over the raw bytes,
// strictly decode the envelope, reconcile, respond. A bad signature mutates
// nothing; an unresolved profile leaves the payment retryable and returns
// 400; a storage failure returns 5xx so the provider redelivers.
func (h *Handlers) HandlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	log := logger.WithContext(c.Request.Context())

	// The signature covers the exact bytes transmitted, never a re-serialized
	// form.
	if err := h.verifier.Verify(c.GetHeader(signature.Header), body); err != nil {
		log.Warn("Webhook signature rejected", "error", err, "client_ip", c.ClientIP())
		metrics.WebhookDeliveries.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var envelope models.WebhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Warn("Webhook payload malformed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	eventType := envelope.Data.Attributes.Type
	if eventType != models.WebhookCheckoutPaid {
		log.Info("Webhook event ignored", "event_type", eventType)
		metrics.WebhookDeliveries.WithLabelValues("ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "Event ignored"})
		return
	}

	result, err := h.services.Webhook.Reconcile(c.Request.Context(), envelope.Event())
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEventIgnored):
			log.Info("Webhook event ignored", "error", err)
			metrics.WebhookDeliveries.WithLabelValues("ignored").Inc()
			c.JSON(http.StatusOK, gin.H{"message": "Event ignored"})
		case apperrors.IsRetryableData(err):
			log.Warn("Webhook reconciliation rejected", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Error("Webhook reconciliation failed", "error", err)
			metrics.WebhookDeliveries.WithLabelValues("error").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
		}
		return
	}

	if result.Replayed {
		log.Info("Webhook replay acknowledged")
	}

	c.JSON(http.StatusOK, gin.H{})
}
