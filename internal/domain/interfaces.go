package domain

import (
	"context"
	"time"

	"pawnest/internal/models"
)

// BookingStore is the document collection holding bookings. Updates are
// merges: they touch only the fields each operation owns.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	FindByProviderOrder(ctx context.Context, orderID int64) (*models.Booking, error)
	SetProviderOrder(ctx context.Context, id string, orderID int64) error
	ApplyPaymentResult(ctx context.Context, id string, result models.PaymentResult) error
	UpdateApproval(ctx context.Context, id, status string, actorID, note *string) error
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error)
	GetShelter(id string) (models.Shelter, bool)
	HasShelters() bool
}

// PaymentProvider is the remote payment gateway.
type PaymentProvider interface {
	Authenticate(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, token string, amount float64, merchantOrderID string) (int64, error)
	GeneratePaymentKey(ctx context.Context, token string, amount float64, orderID int64, customer models.Customer) (string, error)
	IframeURL(paymentToken string) string
}

// CorrelationCache accelerates webhook fallback resolution. Best-effort:
// implementations may be no-ops.
type CorrelationCache interface {
	RememberOrder(ctx context.Context, providerOrderID int64, bookingID string) error
	LookupOrder(ctx context.Context, providerOrderID int64) (string, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker queues bookings for out-of-band synchronization (Sheets).
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error
}
