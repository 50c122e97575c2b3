package paymob

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pawnest/internal/config"
	"pawnest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.PaymobConfig{
		APIKey:        "test-key",
		IntegrationID: "int-1",
		IframeID:      "iframe-1",
		BaseURL:       baseURL,
	})
}

func TestAuthenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/tokens", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-key", body["api_key"])

		json.NewEncoder(w).Encode(map[string]string{"token": "session-token"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	token, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-token", token)
}

func TestAuthenticateErrors(t *testing.T) {
	t.Run("HTTPError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Authenticate(context.Background())
		assert.ErrorIs(t, err, ErrAuth)
	})

	t.Run("EmptyToken", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{})
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Authenticate(context.Background())
		assert.ErrorIs(t, err, ErrAuth)
	})
}

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/ecommerce/orders", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "session-token", body["auth_token"])
		assert.Equal(t, float64(50000), body["amount_cents"])
		assert.Equal(t, "EGP", body["currency"])
		assert.Equal(t, "booking-1", body["merchant_order_id"])

		json.NewEncoder(w).Encode(map[string]int64{"id": 999})
	}))
	defer server.Close()

	orderID, err := newTestClient(server.URL).CreateOrder(context.Background(), "session-token", 500, "booking-1")
	require.NoError(t, err)
	assert.Equal(t, int64(999), orderID)
}

func TestCreateOrderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreateOrder(context.Background(), "session-token", 500, "booking-1")
	assert.ErrorIs(t, err, ErrCreateOrder)
}

func TestGeneratePaymentKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/acceptance/payment_keys", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(999), body["order_id"])
		assert.Equal(t, "int-1", body["integration_id"])

		billing := body["billing_data"].(map[string]interface{})
		assert.Equal(t, "Mona", billing["first_name"])
		// Missing contact fields are filled with the provider's NA sentinel.
		assert.Equal(t, "NA", billing["email"])
		assert.Equal(t, "NA", billing["city"])

		json.NewEncoder(w).Encode(map[string]string{"token": "payment-token"})
	}))
	defer server.Close()

	customer := models.Customer{FirstName: "Mona", Phone: "+201000000001"}
	token, err := newTestClient(server.URL).GeneratePaymentKey(context.Background(), "session-token", 500, 999, customer)
	require.NoError(t, err)
	assert.Equal(t, "payment-token", token)
}

func TestGeneratePaymentKeyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GeneratePaymentKey(context.Background(), "session-token", 500, 999, models.Customer{})
	assert.ErrorIs(t, err, ErrPaymentKey)
}

func TestIframeURL(t *testing.T) {
	client := newTestClient("https://accept.paymob.com")

	url := client.IframeURL("tok-123")
	assert.Equal(t, "https://accept.paymob.com/api/acceptance/iframes/iframe-1?payment_token=tok-123", url)

	escaped := client.IframeURL("tok with spaces&=")
	assert.NotContains(t, escaped, " ")
	assert.Contains(t, escaped, "payment_token=tok+with+spaces%26%3D")
}

func TestAmountCents(t *testing.T) {
	assert.Equal(t, int64(50000), amountCents(500))
	assert.Equal(t, int64(1050), amountCents(10.50))
	// Float noise rounds to the nearest cent.
	assert.Equal(t, int64(1999), amountCents(19.989999999))
}
