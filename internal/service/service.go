package service

import (
	"context"

	"stagelink/internal/cache"
	"stagelink/internal/external"
	"stagelink/internal/messaging"
	"stagelink/internal/models"
	"stagelink/internal/repository"
)

// Store interfaces abstract the persistence layer so services can be
// exercised with in-memory fakes. The repository types satisfy them.

type ShowStore interface {
	GetByID(ctx context.Context, id string) (*models.Show, error)
	MarkFeatured(ctx context.Context, id string) error
}

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error)
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetLatestByUserID(ctx context.Context, userID string) (*models.Payment, error)
	MarkPaid(ctx context.Context, id, providerPaymentID string, amount int64) (bool, error)
	MarkFailed(ctx context.Context, id, providerPaymentID string) error
	MarkPending(ctx context.Context, id string) error
	RevertToPending(ctx context.Context, id string) error
}

type TicketStore interface {
	CreateOnce(ctx context.Context, ticket *models.Ticket) (bool, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Ticket, error)
	Claim(ctx context.Context, ticketID, profileID string) (bool, error)
}

type SubscriptionStore interface {
	Upsert(ctx context.Context, sub *models.Subscription) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Publisher is the NATS surface the services need.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// ReconciledCache is the optional replay short-circuit in front of the
// database. A nil cache is valid and simply skips the fast path.
type ReconciledCache interface {
	IsReconciled(ctx context.Context, checkoutID string) bool
	MarkReconciled(ctx context.Context, checkoutID string) error
}

// CheckoutProvider is the outbound payment-provider surface.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, attrs external.CheckoutSessionAttributes) (*external.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, checkoutID string) (*external.CheckoutSession, error)
}

type Services struct {
	Checkout *CheckoutService
	Webhook  *WebhookService
	Tickets  *TicketService
}

// URLs carried into provider checkout sessions.
type CheckoutURLs struct {
	Success string
	Cancel  string
}

func NewServices(repos *repository.Repositories, natsClient *messaging.NATSClient, cacheClient *cache.Client, paymongoClient *external.PayMongoClient, urls CheckoutURLs) *Services {
	// Typed nils must not become non-nil interfaces.
	var publisher Publisher
	if natsClient != nil {
		publisher = natsClient
	}
	var reconciled ReconciledCache
	if cacheClient != nil {
		reconciled = cacheClient
	}

	notifier := NewNotifier(repos.Notifications, publisher)
	webhook := NewWebhookService(repos.Payments, repos.Profiles, repos.Shows,
		repos.Tickets, repos.Subscriptions, notifier, reconciled, paymongoClient)
	checkout := NewCheckoutService(repos.Payments, repos.Profiles, repos.Shows, paymongoClient, urls)
	tickets := NewTicketService(repos.Payments, repos.Profiles, repos.Tickets)

	return &Services{
		Checkout: checkout,
		Webhook:  webhook,
		Tickets:  tickets,
	}
}
