package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stagelink/internal/external"
	"stagelink/internal/models"
)

// In-memory store fakes. They mirror the guarded-update semantics of the
// Postgres repositories so reconciliation tests exercise the same state
// transitions the real layer enforces.

type fakePayments struct {
	mu   sync.Mutex
	rows map[string]*models.Payment
	seq  int
}

func newFakePayments() *fakePayments {
	return &fakePayments{rows: make(map[string]*models.Payment)}
}

func (f *fakePayments) Create(ctx context.Context, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.CheckoutID == payment.CheckoutID {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	f.seq++
	if payment.ID == "" {
		payment.ID = fmt.Sprintf("pay-%d", f.seq)
	}
	payment.CreatedAt = time.Now()
	cp := *payment
	f.rows[payment.ID] = &cp
	return nil
}

func (f *fakePayments) GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.CheckoutID == checkoutID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePayments) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePayments) GetLatestByUserID(ctx context.Context, userID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Payment
	for _, p := range f.rows {
		if p.UserID != userID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakePayments) MarkPaid(ctx context.Context, id, providerPaymentID string, amount int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok || p.Status == models.PaymentPaid {
		return false, nil
	}
	p.Status = models.PaymentPaid
	p.PaymentID = &providerPaymentID
	p.Amount = amount
	return true, nil
}

func (f *fakePayments) MarkFailed(ctx context.Context, id, providerPaymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok {
		p.Status = models.PaymentFailed
		p.PaymentID = &providerPaymentID
	}
	return nil
}

func (f *fakePayments) MarkPending(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok && p.Status == models.PaymentInitialized {
		p.Status = models.PaymentPending
	}
	return nil
}

func (f *fakePayments) RevertToPending(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok && p.Status == models.PaymentPaid {
		p.Status = models.PaymentPending
	}
	return nil
}

func (f *fakePayments) status(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok {
		return p.Status
	}
	return ""
}

type fakeProfiles struct {
	byUserID map[string]*models.Profile
}

func (f *fakeProfiles) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return f.byUserID[userID], nil
}

func (f *fakeProfiles) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	for _, p := range f.byUserID {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}

type fakeShows struct {
	byID   map[string]*models.Show
	getErr error
}

func (f *fakeShows) GetByID(ctx context.Context, id string) (*models.Show, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byID[id], nil
}

func (f *fakeShows) MarkFeatured(ctx context.Context, id string) error {
	if show, ok := f.byID[id]; ok {
		show.IsFeatured = true
	}
	return nil
}

type fakeTickets struct {
	mu        sync.Mutex
	byPayment map[string]*models.Ticket
	seq       int
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{byPayment: make(map[string]*models.Ticket)}
}

func (f *fakeTickets) CreateOnce(ctx context.Context, ticket *models.Ticket) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byPayment[ticket.PaymentID]; exists {
		return false, nil
	}
	f.seq++
	ticket.ID = fmt.Sprintf("tkt-%d", f.seq)
	cp := *ticket
	f.byPayment[ticket.PaymentID] = &cp
	return true, nil
}

func (f *fakeTickets) GetByPaymentID(ctx context.Context, paymentID string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byPayment[paymentID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeTickets) Claim(ctx context.Context, ticketID, profileID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byPayment {
		if t.ID == ticketID && t.UserID == nil {
			t.UserID = &profileID
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTickets) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byPayment)
}

type fakeSubscriptions struct {
	byUserID map[string]*models.Subscription
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{byUserID: make(map[string]*models.Subscription)}
}

func (f *fakeSubscriptions) Upsert(ctx context.Context, sub *models.Subscription) error {
	cp := *sub
	f.byUserID[sub.UserID] = &cp
	return nil
}

type fakeNotifications struct {
	rows []*models.Notification
}

func (f *fakeNotifications) Create(ctx context.Context, n *models.Notification) error {
	f.rows = append(f.rows, n)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakePublisher) published(subject string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

type fakeCache struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{seen: make(map[string]bool)}
}

func (f *fakeCache) IsReconciled(ctx context.Context, checkoutID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[checkoutID]
}

func (f *fakeCache) MarkReconciled(ctx context.Context, checkoutID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[checkoutID] = true
	return nil
}

type fakeProvider struct {
	session    *external.CheckoutSession
	createErr  error
	lastCreate external.CheckoutSessionAttributes
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, attrs external.CheckoutSessionAttributes) (*external.CheckoutSession, error) {
	f.lastCreate = attrs
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.session != nil {
		return f.session, nil
	}
	return &external.CheckoutSession{
		ID: "cs_test",
		Attributes: external.CheckoutSessionResult{
			CheckoutURL: "https://pay.example.test/cs_test",
		},
	}, nil
}

func (f *fakeProvider) GetCheckoutSession(ctx context.Context, checkoutID string) (*external.CheckoutSession, error) {
	if f.session == nil {
		return nil, errors.New("session not found")
	}
	return f.session, nil
}

// env bundles one wired WebhookService with its fakes.
type env struct {
	payments      *fakePayments
	profiles      *fakeProfiles
	shows         *fakeShows
	tickets       *fakeTickets
	subscriptions *fakeSubscriptions
	notifications *fakeNotifications
	publisher     *fakePublisher
	cache         *fakeCache
	provider      *fakeProvider
	webhook       *WebhookService
}

func newEnv() *env {
	e := &env{
		payments: newFakePayments(),
		profiles: &fakeProfiles{byUserID: map[string]*models.Profile{
			"user-1": {ID: "prof-1", UserID: "user-1", Email: "ana@example.test", DisplayName: "Ana"},
		}},
		shows: &fakeShows{byID: map[string]*models.Show{
			"show-1": {ID: "show-1", Title: "Night Market Sessions", Price: 500, Niche: "professional", ProducerID: "prod-1"},
		}},
		tickets:       newFakeTickets(),
		subscriptions: newFakeSubscriptions(),
		notifications: &fakeNotifications{},
		publisher:     &fakePublisher{},
		cache:         newFakeCache(),
		provider:      &fakeProvider{},
	}

	notifier := NewNotifier(e.notifications, e.publisher)
	e.webhook = NewWebhookService(e.payments, e.profiles, e.shows,
		e.tickets, e.subscriptions, notifier, e.cache, e.provider)
	return e
}

func paidEvent(checkoutID, userID, showID, purchaseType string, amount int64) *models.PaymentEvent {
	var p models.WebhookPayment
	p.ID = "pm_" + checkoutID
	p.Attributes.Amount = amount
	p.Attributes.Status = models.PaymentPaid

	return &models.PaymentEvent{
		CheckoutID: checkoutID,
		Payments:   []models.WebhookPayment{p},
		Metadata: models.EventMetadata{
			UserID: userID,
			ShowID: showID,
			Type:   purchaseType,
		},
	}
}
