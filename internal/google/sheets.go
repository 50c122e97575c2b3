package google

import (
	"context"
	"fmt"
	"os"

	"pawnest/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsService appends booking payment rows to a spreadsheet shelter
// operators reconcile against. Sync is driven by the background worker.
type SheetsService struct {
	service         *sheets.Service
	bookingsSheetID string
}

func NewSheetsService(credentialsFile, bookingsSheetID string) (*SheetsService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return &SheetsService{
		service:         srv,
		bookingsSheetID: bookingsSheetID,
	}, nil
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.bookingsSheetID, "Bookings!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// AppendBooking appends one booking snapshot row. Rows are append-only: a
// later payment outcome for the same booking produces a second row with the
// updated status, which keeps the sync idempotence-friendly without row
// tracking.
func (s *SheetsService) AppendBooking(ctx context.Context, booking *models.Booking) error {
	row := []interface{}{
		booking.ID,
		booking.CreatedAt.Format("2006-01-02 15:04:05"),
		booking.ShelterID,
		booking.UserID,
		booking.Customer.FirstName + " " + booking.Customer.LastName,
		booking.Customer.Email,
		booking.Customer.Phone,
		amountCell(booking),
		booking.Currency,
		booking.PaymentStatus,
		booking.BookingStatus,
		orderCell(booking),
	}

	valueRange := &sheets.ValueRange{Values: [][]interface{}{row}}

	_, err := s.service.Spreadsheets.Values.Append(s.bookingsSheetID, "Bookings!A:L", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()

	return err
}

func amountCell(booking *models.Booking) interface{} {
	if booking.Amount == nil {
		return ""
	}
	return *booking.Amount
}

func orderCell(booking *models.Booking) interface{} {
	if booking.ProviderOrderID == nil {
		return ""
	}
	return *booking.ProviderOrderID
}
