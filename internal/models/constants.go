package models

// Approval lifecycle, driven by shelter managers.
const (
	BookingPending   = "pending"
	BookingAccepted  = "accepted"
	BookingRejected  = "rejected"
	BookingCancelled = "cancelled"
)

// Payment lifecycle, driven by provider callbacks.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// DefaultCurrency is the only currency the provider integration is
// configured for.
const DefaultCurrency = "EGP"

const (
	// CorrelationTTL время жизни записи order_id -> booking_id в Redis
	CorrelationTTL = 7 * 24 * 60 * 60 // 7 дней в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000

	// DefaultProviderTimeout таймаут исходящих вызовов к провайдеру
	DefaultProviderTimeoutSeconds = 15
)

// ValidBookingStatus reports whether s is an allowed approval status.
func ValidBookingStatus(s string) bool {
	switch s {
	case BookingPending, BookingAccepted, BookingRejected, BookingCancelled:
		return true
	}
	return false
}
