package export

import (
	"fmt"
	"time"

	"pawnest/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{
	"Booking ID", "Created At", "Shelter", "Customer", "Email", "Phone",
	"Amount", "Currency", "Payment Status", "Paid At", "Transaction ID",
	"Provider Order ID", "Booking Status", "From", "To", "Nights", "Pets",
}

// BuildReport renders bookings into an xlsx workbook for manual
// reconciliation. The caller owns closing the returned file.
func BuildReport(bookings []models.Booking, startDate, endDate time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Bookings %s - %s",
		startDate.Format("02.01.2006"), endDate.AddDate(0, 0, -1).Format("02.01.2006")))

	writeHeaders(f)

	for i, booking := range bookings {
		writeBookingRow(f, i+3, booking)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	for col := 'B'; col <= 'Q'; col++ {
		_ = f.SetColWidth(sheetName, string(col), string(col), 18)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	return f, nil
}

func writeHeaders(f *excelize.File) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
}

func writeBookingRow(f *excelize.File, row int, booking models.Booking) {
	values := []interface{}{
		booking.ID,
		booking.CreatedAt.Format("2006-01-02 15:04:05"),
		booking.ShelterID,
		booking.Customer.FirstName + " " + booking.Customer.LastName,
		booking.Customer.Email,
		booking.Customer.Phone,
		floatOrEmpty(booking.Amount),
		booking.Currency,
		booking.PaymentStatus,
		timeOrEmpty(booking.PaidAt),
		stringOrEmpty(booking.TransactionID),
		intOrEmpty(booking.ProviderOrderID),
		booking.BookingStatus,
		timeOrEmpty(booking.FromDate),
		timeOrEmpty(booking.ToDate),
		intOrEmpty(booking.Nights),
		intOrEmpty(booking.PetCount),
	}

	for i, value := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheetName, cell, value)
	}
}

func floatOrEmpty(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func intOrEmpty(v *int64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func timeOrEmpty(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format("2006-01-02 15:04:05")
}
