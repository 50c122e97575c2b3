package service

import (
	"encoding/json"
	"time"

	"pawnest/internal/models"
)

// CreateSessionRequest is the inbound payload for POST /pay. Field names
// follow the public API contract, not internal storage.
type CreateSessionRequest struct {
	UserID      string          `json:"userId"`
	ShelterID   string          `json:"shelterId"`
	Amount      float64         `json:"amount"`
	UserData    UserData        `json:"userData"`
	BookingData json.RawMessage `json:"bookingData"`
}

type UserData struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (u UserData) customer() models.Customer {
	return models.Customer{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}
}

// bookingDetails are the query-friendly projections pulled out of the raw
// bookingData blob. The blob itself is kept verbatim for older readers.
type bookingDetails struct {
	Location *string  `json:"location"`
	FromDate string   `json:"fromDate"`
	ToDate   string   `json:"toDate"`
	Nights   *int64   `json:"nights"`
	PetCount *int64   `json:"petCount"`
	PetIDs   []string `json:"petIds"`
}

// flatten projects bookingData onto the booking. Malformed blobs leave the
// projections null; the raw blob is stored either way.
func flatten(raw json.RawMessage, booking *models.Booking) {
	booking.BookingData = raw
	if len(raw) == 0 {
		return
	}

	var details bookingDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return
	}

	booking.Location = details.Location
	booking.FromDate = parseDate(details.FromDate)
	booking.ToDate = parseDate(details.ToDate)
	booking.Nights = details.Nights
	booking.PetCount = details.PetCount
	if details.PetIDs != nil {
		booking.PetIDs = details.PetIDs
	}
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
