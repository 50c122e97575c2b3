package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pawnest/internal/config"
	"pawnest/internal/database"
	"pawnest/internal/events"
	"pawnest/internal/models"
	"pawnest/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	mock.Mock
}

func (m *stubProvider) Authenticate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *stubProvider) CreateOrder(ctx context.Context, token string, amount float64, merchantOrderID string) (int64, error) {
	args := m.Called(ctx, token, amount, merchantOrderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *stubProvider) GeneratePaymentKey(ctx context.Context, token string, amount float64, orderID int64, customer models.Customer) (string, error) {
	args := m.Called(ctx, token, amount, orderID, customer)
	return args.String(0), args.Error(1)
}

func (m *stubProvider) IframeURL(paymentToken string) string {
	return "https://pay.example.com/iframe?payment_token=" + paymentToken
}

func setupTestServer(t *testing.T, cfg config.APIConfig) (*httptest.Server, *database.DB, *stubProvider) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	provider := &stubProvider{}
	payments := service.NewPaymentService(db, provider, nil, events.NewEventBus(), nil, &logger)

	srv := NewHTTPServer(cfg, payments, db, &logger)
	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)

	return ts, db, provider
}

func TestHandlePay(t *testing.T) {
	ts, db, provider := setupTestServer(t, config.APIConfig{})

	provider.On("Authenticate", mock.Anything).Return("session-token", nil)
	provider.On("CreateOrder", mock.Anything, "session-token", 500.0, mock.AnythingOfType("string")).Return(int64(999), nil)
	provider.On("GeneratePaymentKey", mock.Anything, "session-token", 500.0, int64(999), mock.Anything).Return("ptok", nil)

	body := `{"userId":"user-1","shelterId":"nest-maadi","amount":500,"userData":{"firstName":"Mona","email":"mona@example.com"}}`
	resp, err := http.Post(ts.URL+"/pay", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "https://pay.example.com/iframe?payment_token=ptok", result["iframeUrl"])

	bookings, err := db.GetBookingsByDateRange(context.Background(), timeHourAgo(), timeHourAhead())
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, models.PaymentPending, bookings[0].PaymentStatus)
}

func TestHandlePayBadRequest(t *testing.T) {
	ts, _, _ := setupTestServer(t, config.APIConfig{})

	t.Run("InvalidJSON", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/pay", "application/json", bytes.NewBufferString("{nope"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("MissingFields", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/pay", "application/json", bytes.NewBufferString(`{"amount":500}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("WrongMethod", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/pay")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestHandleWebhook(t *testing.T) {
	ts, db, _ := setupTestServer(t, config.APIConfig{})
	ctx := context.Background()

	amount := 500.0
	booking := &models.Booking{UserID: "user-1", ShelterID: "nest-maadi", Amount: &amount}
	require.NoError(t, db.CreateBooking(ctx, booking))

	payload := fmt.Sprintf(`{"obj":{"id":7788,"success":true,"amount_cents":50000,"order":{"id":999,"merchant_order_id":%q}}}`, booking.ID)
	resp, err := http.Post(ts.URL+"/webhook", "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
}

func TestHandleWebhookUnresolved(t *testing.T) {
	ts, _, _ := setupTestServer(t, config.APIConfig{})

	payload := `{"obj":{"id":1,"success":true,"order":{"id":424242,"merchant_order_id":"no-such-booking"}}}`
	resp, err := http.Post(ts.URL+"/webhook", "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleBookingStatus(t *testing.T) {
	ts, db, _ := setupTestServer(t, config.APIConfig{})
	ctx := context.Background()

	booking := &models.Booking{UserID: "user-1", ShelterID: "nest-maadi"}
	require.NoError(t, db.CreateBooking(ctx, booking))

	patch := func(path, body string) *http.Response {
		req, err := http.NewRequest(http.MethodPatch, ts.URL+path, bytes.NewBufferString(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("Accepted", func(t *testing.T) {
		resp := patch("/bookings/"+booking.ID+"/status", `{"status":"accepted","actorId":"manager-7"}`)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		got, err := db.GetBooking(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingAccepted, got.BookingStatus)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		resp := patch("/bookings/"+booking.ID+"/status", `{"status":"wat"}`)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("NotFound", func(t *testing.T) {
		resp := patch("/bookings/no-such-id/status", `{"status":"accepted"}`)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("BadPath", func(t *testing.T) {
		resp := patch("/bookings//status", `{"status":"accepted"}`)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHandleExport(t *testing.T) {
	ts, db, _ := setupTestServer(t, config.APIConfig{})
	ctx := context.Background()

	amount := 500.0
	booking := &models.Booking{UserID: "user-1", ShelterID: "nest-maadi", Amount: &amount}
	require.NoError(t, db.CreateBooking(ctx, booking))

	resp, err := http.Get(ts.URL + "/bookings/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestHandleExportBadDates(t *testing.T) {
	ts, _, _ := setupTestServer(t, config.APIConfig{})

	resp, err := http.Get(ts.URL + "/bookings/export?from=not-a-date")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func timeHourAgo() time.Time   { return time.Now().UTC().Add(-time.Hour) }
func timeHourAhead() time.Time { return time.Now().UTC().Add(time.Hour) }

func TestHealthz(t *testing.T) {
	ts, _, _ := setupTestServer(t, config.APIConfig{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
