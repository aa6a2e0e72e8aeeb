package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stagelink/internal/models"
	"stagelink/internal/service"
	"stagelink/internal/signature"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsk_test_secret"

// memStore backs every store interface the webhook pipeline touches.
type memStore struct {
	payments map[string]*models.Payment
	profiles map[string]*models.Profile
	shows    map[string]*models.Show
	tickets  map[string]*models.Ticket
	subs     map[string]*models.Subscription
	notifs   int
	seq      int
}

func newMemStore() *memStore {
	return &memStore{
		payments: make(map[string]*models.Payment),
		profiles: map[string]*models.Profile{
			"user-1": {ID: "prof-1", UserID: "user-1", Email: "ana@example.test", DisplayName: "Ana"},
		},
		shows: map[string]*models.Show{
			"show-1": {ID: "show-1", Title: "Night Market Sessions", Price: 500, Niche: "professional"},
		},
		tickets: make(map[string]*models.Ticket),
		subs:    make(map[string]*models.Subscription),
	}
}

func (m *memStore) Create(ctx context.Context, p *models.Payment) error {
	m.seq++
	if p.ID == "" {
		p.ID = fmt.Sprintf("pay-%d", m.seq)
	}
	m.payments[p.ID] = p
	return nil
}

func (m *memStore) GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error) {
	for _, p := range m.payments {
		if p.CheckoutID == checkoutID {
			return p, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return m.payments[id], nil
}

func (m *memStore) GetLatestByUserID(ctx context.Context, userID string) (*models.Payment, error) {
	for _, p := range m.payments {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, nil
}

func (m *memStore) MarkPaid(ctx context.Context, id, providerPaymentID string, amount int64) (bool, error) {
	p, ok := m.payments[id]
	if !ok || p.Status == models.PaymentPaid {
		return false, nil
	}
	p.Status = models.PaymentPaid
	p.Amount = amount
	return true, nil
}

func (m *memStore) MarkFailed(ctx context.Context, id, providerPaymentID string) error {
	if p, ok := m.payments[id]; ok {
		p.Status = models.PaymentFailed
	}
	return nil
}

func (m *memStore) MarkPending(ctx context.Context, id string) error {
	if p, ok := m.payments[id]; ok && p.Status == models.PaymentInitialized {
		p.Status = models.PaymentPending
	}
	return nil
}

func (m *memStore) RevertToPending(ctx context.Context, id string) error {
	if p, ok := m.payments[id]; ok && p.Status == models.PaymentPaid {
		p.Status = models.PaymentPending
	}
	return nil
}

func (m *memStore) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return m.profiles[userID], nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetShowByID(ctx context.Context, id string) (*models.Show, error) {
	return m.shows[id], nil
}

func (m *memStore) MarkFeatured(ctx context.Context, id string) error {
	if s, ok := m.shows[id]; ok {
		s.IsFeatured = true
	}
	return nil
}

func (m *memStore) CreateOnce(ctx context.Context, t *models.Ticket) (bool, error) {
	if _, exists := m.tickets[t.PaymentID]; exists {
		return false, nil
	}
	m.seq++
	t.ID = fmt.Sprintf("tkt-%d", m.seq)
	m.tickets[t.PaymentID] = t
	return true, nil
}

func (m *memStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.Ticket, error) {
	return m.tickets[paymentID], nil
}

func (m *memStore) Claim(ctx context.Context, ticketID, profileID string) (bool, error) {
	for _, t := range m.tickets {
		if t.ID == ticketID && t.UserID == nil {
			t.UserID = &profileID
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Upsert(ctx context.Context, sub *models.Subscription) error {
	m.subs[sub.UserID] = sub
	return nil
}

func (m *memStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	m.notifs++
	return nil
}

// showStore and notificationStore adapt memStore where method names collide
// across interfaces.
type showStore struct{ *memStore }

func (s showStore) GetByID(ctx context.Context, id string) (*models.Show, error) {
	return s.GetShowByID(ctx, id)
}

type notificationStore struct{ *memStore }

func (n notificationStore) Create(ctx context.Context, notification *models.Notification) error {
	return n.CreateNotification(ctx, notification)
}

func newWebhookRouter(t *testing.T, store *memStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	notifier := service.NewNotifier(notificationStore{store}, nil)
	webhook := service.NewWebhookService(store, store, showStore{store},
		store, store, notifier, nil, nil)

	verifier := signature.NewVerifier(testSecret, signature.DefaultTolerance)
	h := NewHandlers(&service.Services{Webhook: webhook}, verifier)

	router := gin.New()
	router.POST("/webhooks/paymongo", h.HandlePaymentWebhook)
	return router
}

func webhookBody(t *testing.T, eventType, checkoutID, userID, showID, purchaseType, paymentStatus string) []byte {
	t.Helper()

	var envelope models.WebhookEnvelope
	envelope.Data.Attributes.Type = eventType
	envelope.Data.Attributes.Data.ID = checkoutID

	var sub models.WebhookPayment
	sub.ID = "pm_" + checkoutID
	sub.Attributes.Amount = 50
	sub.Attributes.Status = paymentStatus
	envelope.Data.Attributes.Data.Attributes.Payments = []models.WebhookPayment{sub}
	envelope.Data.Attributes.Data.Attributes.Metadata = models.EventMetadata{
		UserID: userID,
		ShowID: showID,
		Type:   purchaseType,
	}

	body, err := json.Marshal(envelope)
	require.NoError(t, err)
	return body
}

func deliver(router *gin.Engine, body []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paymongo", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set(signature.Header, header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookValidDeliveryIssuesTicket(t *testing.T) {
	store := newMemStore()
	store.payments["pay-1"] = &models.Payment{
		ID: "pay-1", UserID: "user-1", CheckoutID: "cs_1", Status: models.PaymentInitialized,
	}
	router := newWebhookRouter(t, store)

	body := webhookBody(t, models.WebhookCheckoutPaid, "cs_1", "user-1", "show-1",
		models.PurchaseTicket, models.PaymentPaid)

	w := deliver(router, body, signature.Sign(testSecret, time.Now(), body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PaymentPaid, store.payments["pay-1"].Status)
	assert.Len(t, store.tickets, 1)
	assert.Equal(t, 1, store.notifs)
}

func TestWebhookMissingSignatureRejected(t *testing.T) {
	store := newMemStore()
	router := newWebhookRouter(t, store)

	body := webhookBody(t, models.WebhookCheckoutPaid, "cs_1", "user-1", "show-1",
		models.PurchaseTicket, models.PaymentPaid)

	w := deliver(router, body, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, store.payments)
	assert.Empty(t, store.tickets)
}

func TestWebhookTamperedBodyRejected(t *testing.T) {
	store := newMemStore()
	router := newWebhookRouter(t, store)

	body := webhookBody(t, models.WebhookCheckoutPaid, "cs_1", "user-1", "show-1",
		models.PurchaseTicket, models.PaymentPaid)
	header := signature.Sign(testSecret, time.Now(), body)

	tampered := bytes.Replace(body, []byte(`"amount":50`), []byte(`"amount":1`), 1)
	require.NotEqual(t, body, tampered)

	w := deliver(router, tampered, header)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, store.tickets)
}

func TestWebhookStaleTimestampRejected(t *testing.T) {
	store := newMemStore()
	router := newWebhookRouter(t, store)

	body := webhookBody(t, models.WebhookCheckoutPaid, "cs_1", "user-1", "show-1",
		models.PurchaseTicket, models.PaymentPaid)
	header := signature.Sign(testSecret, time.Now().Add(-time.Hour), body)

	w := deliver(router, body, header)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookUnknownEventTypeAcknowledged(t *testing.T) {
	store := newMemStore()
	router := newWebhookRouter(t, store)

	body := webhookBody(t, "source.chargeable", "cs_1", "user-1", "show-1",
		models.PurchaseTicket, models.PaymentPaid)

	w := deliver(router, body, signature.Sign(testSecret, time.Now(), body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Event ignored")
	assert.Empty(t, store.payments)
}

func TestWebhookMalformedPayloadRejected(t *testing.T) {
	store := newMemStore()
	router := newWebhookRouter(t, store)

	body := []byte(`{"data": "not an object`)
	w := deliver(router, body, signature.Sign(testSecret, time.Now(), body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookUnknownProfileReturns400AndStaysRetryable(t *testing.T) {
	store := newMemStore()
	store.payments["pay-1"] = &models.Payment{
		ID: "pay-1", UserID: "ghost", CheckoutID: "cs_1", Status: models.PaymentInitialized,
	}
	router := newWebhookRouter(t, store)

	body := webhookBody(t, models.WebhookCheckoutPaid, "cs_1", "ghost", "show-1",
		models.PurchaseTicket, models.PaymentPaid)

	w := deliver(router, body, signature.Sign(testSecret, time.Now(), body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.PaymentInitialized, store.payments["pay-1"].Status)
}

func TestWebhookReplayReturns200Once(t *testing.T) {
	store := newMemStore()
	store.payments["pay-1"] = &models.Payment{
		ID: "pay-1", UserID: "user-1", CheckoutID: "cs_1", Status: models.PaymentInitialized,
	}
	router := newWebhookRouter(t, store)

	body := webhookBody(t, models.WebhookCheckoutPaid, "cs_1", "user-1", "show-1",
		models.PurchaseTicket, models.PaymentPaid)

	for i := 0; i < 3; i++ {
		w := deliver(router, body, signature.Sign(testSecret, time.Now(), body))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Len(t, store.tickets, 1)
	assert.Equal(t, 1, store.notifs)
}
