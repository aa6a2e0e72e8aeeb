package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

var (
	// WebhookDeliveries counts inbound webhook deliveries by terminal
	// outcome: reconciled, replayed, ignored, rejected, failed_charge, error.
	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagelink_webhook_deliveries_total",
		Help: "Inbound payment webhook deliveries by outcome.",
	}, []string{"outcome"})

	// CheckoutSessions counts checkout-session creations by purchase type.
	CheckoutSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagelink_checkout_sessions_total",
		Help: "Checkout sessions created by purchase type.",
	}, []string{"type"})

	// TicketsIssued counts tickets created by reconciliation.
	TicketsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stagelink_tickets_issued_total",
		Help: "Tickets issued by payment reconciliation.",
	})
)

// Handler serves the prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
