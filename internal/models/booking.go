package models

import (
	"encoding/json"
	"time"
)

// Booking is the central record: one reservation with its payment and
// approval lifecycles. The two status axes are independent.
type Booking struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	ShelterID       string          `json:"shelter_id"`
	Amount          *float64        `json:"amount"`
	Currency        string          `json:"currency"`
	BookingStatus   string          `json:"booking_status"`
	PaymentStatus   string          `json:"payment_status"`
	ProviderOrderID *int64          `json:"provider_order_id"`
	TransactionID   *string         `json:"transaction_id"`
	PaidAt          *time.Time      `json:"paid_at"`
	CreatedAt       time.Time       `json:"created_at"`
	StatusUpdatedAt *time.Time      `json:"status_updated_at"`
	StatusUpdatedBy *string         `json:"status_updated_by"`
	AcceptedAt      *time.Time      `json:"accepted_at"`
	RejectedAt      *time.Time      `json:"rejected_at"`
	StatusNote      *string         `json:"status_note"`
	Customer        Customer        `json:"customer"`
	Location        *string         `json:"location"`
	FromDate        *time.Time      `json:"from_date"`
	ToDate          *time.Time      `json:"to_date"`
	Nights          *int64          `json:"nights"`
	PetCount        *int64          `json:"pet_count"`
	PetIDs          []string        `json:"pet_ids"`
	BookingData     json.RawMessage `json:"booking_data"`
}

// Customer is a minimal snapshot taken at session creation so the booking
// stays readable even if the user record changes later.
type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// PaymentResult is the outcome extracted from a provider callback and
// merged onto a booking. Nil pointers overwrite the stored value with NULL;
// reapplying the same result yields the same final state.
type PaymentResult struct {
	Success         bool
	TransactionID   *string
	ProviderOrderID *int64
	Amount          *float64
	PaidAt          *time.Time
}
