package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"pawnest/internal/models"

	"github.com/google/uuid"
)

const bookingColumns = `id, user_id, shelter_id, amount, currency, booking_status, payment_status,
        provider_order_id, transaction_id, paid_at, created_at,
        status_updated_at, status_updated_by, accepted_at, rejected_at, status_note,
        customer_first_name, customer_last_name, customer_email, customer_phone,
        location, from_date, to_date, nights, pet_count, pet_ids, booking_data`

// CreateBooking persists a new booking and assigns its identifier. The id is
// store-assigned and later doubles as the merchant order id sent to the
// provider.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.Currency == "" {
		booking.Currency = models.DefaultCurrency
	}
	if booking.BookingStatus == "" {
		booking.BookingStatus = models.BookingPending
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = models.PaymentPending
	}
	booking.CreatedAt = time.Now().UTC()

	petIDs, err := json.Marshal(booking.PetIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal pet ids: %w", err)
	}

	query := `INSERT INTO bookings (
                id, user_id, shelter_id, amount, currency, booking_status, payment_status,
                created_at, customer_first_name, customer_last_name, customer_email, customer_phone,
                location, from_date, to_date, nights, pet_count, pet_ids, booking_data
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.ShelterID,
		booking.Amount,
		booking.Currency,
		booking.BookingStatus,
		booking.PaymentStatus,
		booking.CreatedAt,
		booking.Customer.FirstName,
		booking.Customer.LastName,
		booking.Customer.Email,
		booking.Customer.Phone,
		booking.Location,
		booking.FromDate,
		booking.ToDate,
		booking.Nights,
		booking.PetCount,
		string(petIDs),
		nullableJSON(booking.BookingData),
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetBooking возвращает заявку по идентификатору
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	return db.scanBooking(db.QueryRowContext(ctx, query, id))
}

// FindByProviderOrder is the fallback correlation path: it locates a booking
// by the provider-assigned order id stored at session creation. The column
// is not unique by contract; the oldest booking wins, deterministically.
func (db *DB) FindByProviderOrder(ctx context.Context, orderID int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE provider_order_id = ? ORDER BY created_at, id LIMIT 1`
	return db.scanBooking(db.QueryRowContext(ctx, query, orderID))
}

// SetProviderOrder attaches the provider's numeric order id to a booking.
func (db *DB) SetProviderOrder(ctx context.Context, id string, orderID int64) error {
	query := `UPDATE bookings SET provider_order_id = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, orderID, id)
	if err != nil {
		return fmt.Errorf("failed to set provider order id: %w", err)
	}
	return requireRow(result)
}

// ApplyPaymentResult merges a payment outcome onto a booking. The update is
// unconditional: redelivered callbacks overwrite the same fields with the
// same values, so the final state does not depend on delivery count.
func (db *DB) ApplyPaymentResult(ctx context.Context, id string, result models.PaymentResult) error {
	status := models.PaymentFailed
	if result.Success {
		status = models.PaymentPaid
	}

	query := `UPDATE bookings
              SET payment_status = ?, paid_at = ?, transaction_id = ?, provider_order_id = ?, amount = ?
              WHERE id = ?`
	res, err := db.ExecContext(ctx, query,
		status,
		result.PaidAt,
		result.TransactionID,
		result.ProviderOrderID,
		result.Amount,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to apply payment result: %w", err)
	}
	return requireRow(res)
}

// UpdateApproval advances the approval state machine. Payment fields are
// never touched here.
func (db *DB) UpdateApproval(ctx context.Context, id, status string, actorID, note *string) error {
	now := time.Now().UTC()

	query := `UPDATE bookings SET booking_status = ?, status_updated_at = ?, status_updated_by = ?`
	args := []interface{}{status, now, actorID}

	switch status {
	case models.BookingAccepted:
		query += `, accepted_at = ?`
		args = append(args, now)
	case models.BookingRejected:
		query += `, rejected_at = ?`
		args = append(args, now)
	}
	if note != nil {
		query += `, status_note = ?`
		args = append(args, *note)
	}

	query += ` WHERE id = ?`
	args = append(args, id)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return requireRow(result)
}

// GetBookingsByDateRange возвращает заявки, созданные за период
func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE created_at >= ? AND created_at < ?
              ORDER BY created_at`

	rows, err := db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		booking, err := db.scanBookingRows(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (db *DB) scanBooking(row *sql.Row) (*models.Booking, error) {
	booking, err := scanBookingFrom(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return booking, err
}

func (db *DB) scanBookingRows(rows *sql.Rows) (*models.Booking, error) {
	return scanBookingFrom(rows)
}

func scanBookingFrom(scanner rowScanner) (*models.Booking, error) {
	var (
		booking         models.Booking
		amount          sql.NullFloat64
		providerOrderID sql.NullInt64
		transactionID   sql.NullString
		paidAt          sql.NullTime
		statusUpdatedAt sql.NullTime
		statusUpdatedBy sql.NullString
		acceptedAt      sql.NullTime
		rejectedAt      sql.NullTime
		statusNote      sql.NullString
		location        sql.NullString
		fromDate        sql.NullTime
		toDate          sql.NullTime
		nights          sql.NullInt64
		petCount        sql.NullInt64
		petIDs          string
		bookingData     sql.NullString
	)

	err := scanner.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ShelterID,
		&amount,
		&booking.Currency,
		&booking.BookingStatus,
		&booking.PaymentStatus,
		&providerOrderID,
		&transactionID,
		&paidAt,
		&booking.CreatedAt,
		&statusUpdatedAt,
		&statusUpdatedBy,
		&acceptedAt,
		&rejectedAt,
		&statusNote,
		&booking.Customer.FirstName,
		&booking.Customer.LastName,
		&booking.Customer.Email,
		&booking.Customer.Phone,
		&location,
		&fromDate,
		&toDate,
		&nights,
		&petCount,
		&petIDs,
		&bookingData,
	)
	if err != nil {
		return nil, err
	}

	booking.Amount = nullFloat(amount)
	booking.ProviderOrderID = nullInt(providerOrderID)
	booking.TransactionID = nullString(transactionID)
	booking.PaidAt = nullTime(paidAt)
	booking.StatusUpdatedAt = nullTime(statusUpdatedAt)
	booking.StatusUpdatedBy = nullString(statusUpdatedBy)
	booking.AcceptedAt = nullTime(acceptedAt)
	booking.RejectedAt = nullTime(rejectedAt)
	booking.StatusNote = nullString(statusNote)
	booking.Location = nullString(location)
	booking.FromDate = nullTime(fromDate)
	booking.ToDate = nullTime(toDate)
	booking.Nights = nullInt(nights)
	booking.PetCount = nullInt(petCount)

	if err := json.Unmarshal([]byte(petIDs), &booking.PetIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pet ids: %w", err)
	}
	if bookingData.Valid {
		booking.BookingData = json.RawMessage(bookingData.String)
	}

	return &booking, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
