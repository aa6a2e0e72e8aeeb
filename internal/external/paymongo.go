package external

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"stagelink/internal/models"
)

type PayMongoClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

type PayMongoConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// PayMongo checkout session models, nested the way the provider API nests
// them.

type CheckoutLineItem struct {
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
}

type CheckoutSessionAttributes struct {
	LineItems          []CheckoutLineItem   `json:"line_items"`
	PaymentMethodTypes []string             `json:"payment_method_types"`
	SendEmailReceipt   bool                 `json:"send_email_receipt"`
	ShowDescription    bool                 `json:"show_description"`
	ShowLineItems      bool                 `json:"show_line_items"`
	SuccessURL         string               `json:"success_url,omitempty"`
	CancelURL          string               `json:"cancel_url,omitempty"`
	Description        string               `json:"description,omitempty"`
	Metadata           models.EventMetadata `json:"metadata"`
}

type createCheckoutSessionRequest struct {
	Data struct {
		Attributes CheckoutSessionAttributes `json:"attributes"`
	} `json:"data"`
}

type CheckoutSessionResult struct {
	CheckoutURL string                  `json:"checkout_url"`
	Payments    []models.WebhookPayment `json:"payments"`
	Metadata    models.EventMetadata    `json:"metadata"`
}

type CheckoutSession struct {
	ID         string                `json:"id"`
	Attributes CheckoutSessionResult `json:"attributes"`
}

type checkoutSessionResponse struct {
	Data   *CheckoutSession `json:"data"`
	Errors []struct {
		Detail string `json:"detail"`
	} `json:"errors"`
}

func NewPayMongoClient(cfg PayMongoConfig) *PayMongoClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.paymongo.com"
	}

	return &PayMongoClient{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (pc *PayMongoClient) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(pc.secretKey+":"))
}

// CreateCheckoutSession opens a provider-hosted payment flow for the given
// amount. The amount is server-computed; the metadata ties the eventual
// webhook back to the show, user and purchase type.
func (pc *PayMongoClient) CreateCheckoutSession(ctx context.Context, attrs CheckoutSessionAttributes) (*CheckoutSession, error) {
	var req createCheckoutSessionRequest
	req.Data.Attributes = attrs

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		pc.baseURL+"/v1/checkout_sessions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", pc.authHeader())

	resp, err := pc.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	defer resp.Body.Close()

	var result checkoutSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("paymongo error: %s", result.Errors[0].Detail)
	}
	if result.Data == nil {
		return nil, fmt.Errorf("paymongo returned an empty checkout session")
	}

	return result.Data, nil
}

// GetCheckoutSession fetches the current provider state of a session,
// including its sub-payments. Used by the verification poll.
func (pc *PayMongoClient) GetCheckoutSession(ctx context.Context, checkoutID string) (*CheckoutSession, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		pc.baseURL+"/v1/checkout_sessions/"+checkoutID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", pc.authHeader())

	resp, err := pc.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkout session: %w", err)
	}
	defer resp.Body.Close()

	var result checkoutSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("paymongo error: %s", result.Errors[0].Detail)
	}
	if result.Data == nil {
		return nil, fmt.Errorf("checkout session %s not found", checkoutID)
	}

	return result.Data, nil
}
