package repository

import (
	"stagelink/internal/database"
)

type Repositories struct {
	Shows         *ShowRepository
	Profiles      *ProfileRepository
	Payments      *PaymentRepository
	Tickets       *TicketRepository
	Subscriptions *SubscriptionRepository
	Notifications *NotificationRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Shows:         NewShowRepository(db),
		Profiles:      NewProfileRepository(db),
		Payments:      NewPaymentRepository(db),
		Tickets:       NewTicketRepository(db),
		Subscriptions: NewSubscriptionRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}
