package consumers

import (
	"context"
	"log/slog"

	"stagelink/internal/config"
	"stagelink/internal/database"
	"stagelink/internal/external"
	"stagelink/internal/messaging"
	"stagelink/internal/models"
	"stagelink/internal/repository"
)

// ConsumerService runs the email side effects off the webhook request path.
// Reconciliation publishes events; this process subscribes and sends.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)
	emailClient := external.NewEmailClient(cfg.Email)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: NewHandlers(repos, emailClient),
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue(models.EventTicketIssued, "consumers", cs.handlers.HandleTicketIssued); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventSubscriptionActivated, "consumers", cs.handlers.HandleSubscriptionActivated); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventPaymentFailed, "consumers", cs.handlers.HandlePaymentFailed); err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
