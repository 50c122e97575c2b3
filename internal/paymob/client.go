package paymob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"pawnest/internal/config"
	"pawnest/internal/models"
)

var (
	// ErrAuth провайдер не выдал рабочий сессионный токен
	ErrAuth = errors.New("paymob authentication failed")
	// ErrCreateOrder провайдер не создал заказ
	ErrCreateOrder = errors.New("paymob order creation failed")
	// ErrPaymentKey провайдер не выдал платежный токен
	ErrPaymentKey = errors.New("paymob payment key generation failed")
)

// Client talks to the Paymob Accept API. All amounts cross the wire in
// cents; merchant_order_id carries our booking id so callbacks can be
// mapped back.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	integrationID string
	iframeID      string
}

func NewClient(cfg config.PaymobConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(models.DefaultProviderTimeoutSeconds) * time.Second
	}

	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		integrationID: cfg.IntegrationID,
		iframeID:      cfg.IframeID,
	}
}

// Authenticate exchanges the API key for a short-lived session token.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	body := map[string]interface{}{"api_key": c.apiKey}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.postJSON(ctx, "/api/auth/tokens", body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: empty token in response", ErrAuth)
	}

	return resp.Token, nil
}

// CreateOrder registers an order with the provider. merchantOrderID must be
// the booking's own id; the provider echoes it back in callbacks and it is
// the primary reconciliation key.
func (c *Client) CreateOrder(ctx context.Context, token string, amount float64, merchantOrderID string) (int64, error) {
	body := map[string]interface{}{
		"auth_token":        token,
		"delivery_needed":   false,
		"amount_cents":      amountCents(amount),
		"currency":          models.DefaultCurrency,
		"merchant_order_id": merchantOrderID,
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.postJSON(ctx, "/api/ecommerce/orders", body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCreateOrder, err)
	}
	if resp.ID == 0 {
		return 0, fmt.Errorf("%w: empty order id in response", ErrCreateOrder)
	}

	return resp.ID, nil
}

// GeneratePaymentKey obtains the payment token the hosted iframe consumes.
func (c *Client) GeneratePaymentKey(ctx context.Context, token string, amount float64, orderID int64, customer models.Customer) (string, error) {
	body := map[string]interface{}{
		"auth_token":   token,
		"amount_cents": amountCents(amount),
		"currency":     models.DefaultCurrency,
		"order_id":     orderID,
		"expiration":   3600,
		"billing_data": map[string]interface{}{
			"first_name":   orNA(customer.FirstName),
			"last_name":    orNA(customer.LastName),
			"email":        orNA(customer.Email),
			"phone_number": orNA(customer.Phone),
			"street":       "NA",
			"building":     "NA",
			"floor":        "NA",
			"apartment":    "NA",
			"city":         "NA",
			"state":        "NA",
			"country":      "NA",
			"postal_code":  "NA",
		},
		"integration_id": c.integrationID,
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.postJSON(ctx, "/api/acceptance/payment_keys", body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentKey, err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: empty payment token in response", ErrPaymentKey)
	}

	return resp.Token, nil
}

// IframeURL builds the hosted-payment redirect URL for a payment token.
func (c *Client) IframeURL(paymentToken string) string {
	return fmt.Sprintf("%s/api/acceptance/iframes/%s?payment_token=%s",
		c.baseURL, c.iframeID, url.QueryEscape(paymentToken))
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request %s: status %d: %s", path, resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response %s: %v", path, err)
	}

	return nil
}

func amountCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func orNA(s string) string {
	if s == "" {
		return "NA"
	}
	return s
}
