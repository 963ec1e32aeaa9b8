// Package export flattens registrations and hotel bookings into tables for the
// organisers' spreadsheets.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"norwegianopen/internal/model"
)

type Dataset string

const (
	DatasetRegistrations Dataset = "registrations"
	DatasetHotels        Dataset = "hotels"
)

func ParseDataset(s string) (Dataset, bool) {
	switch Dataset(strings.ToLower(strings.TrimSpace(s))) {
	case DatasetRegistrations:
		return DatasetRegistrations, true
	case DatasetHotels:
		return DatasetHotels, true
	}
	return "", false
}

// Table is a header row plus data rows, all cells as text.
type Table struct {
	Header []string
	Rows   [][]string
}

// Values converts the table, header first, to the cell type of the Sheets API.
func (t Table) Values() [][]any {
	values := make([][]any, 0, len(t.Rows)+1)
	values = append(values, toAny(t.Header))
	for _, row := range t.Rows {
		values = append(values, toAny(row))
	}
	return values
}

// WriteCSV writes the table as RFC 4180 CSV.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("export: failed to write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("export: failed to write rows: %w", err)
	}
	return nil
}

// CSV returns the table as CSV bytes.
func (t Table) CSV() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var registrationHeader = []string{
	"User ID", "Full name", "Email", "Country", "Region", "Level", "Role", "Competing",
	"Pass option", "Intensive", "Promo code", "Partner name", "Partner email", "WSDC ID",
	"Tier", "Base price", "Amount due", "Payment deadline", "Status", "Approval email sent",
	"Created at",
}

func Registrations(registrations []model.Registration, loc *time.Location) Table {
	t := Table{Header: registrationHeader, Rows: make([][]string, 0, len(registrations))}
	for _, r := range registrations {
		t.Rows = append(t.Rows, []string{
			r.UserID,
			r.FullName,
			r.Email,
			r.Country,
			string(r.Region),
			string(r.Level),
			string(r.Role),
			yesNo(r.Competing),
			string(r.PassOption),
			yesNo(r.AddedIntensive),
			r.PromoCode,
			r.PartnerName,
			r.PartnerEmail,
			r.WSDCID,
			string(r.PriceTier),
			strconv.Itoa(r.BasePrice),
			strconv.Itoa(r.AmountDue),
			formatDate(r.PaymentDeadline, loc),
			string(r.Status),
			yesNo(r.ApprovalEmailSent),
			formatTimestamp(r.CreatedAt, loc),
		})
	}
	return t
}

var hotelHeader = []string{
	"Full name", "Email", "Room", "Check-in", "Check-out", "Nights", "Amount due",
	"Roommates", "Special requests", "Payment deadline", "Status", "Confirmation email sent",
	"Created at",
}

func Hotels(bookings []model.HotelBooking, loc *time.Location) Table {
	t := Table{Header: hotelHeader, Rows: make([][]string, 0, len(bookings))}
	for _, b := range bookings {
		checkIn, checkOut := "", ""
		if b.CheckIn.IsSet {
			checkIn = formatDate(b.CheckIn.Val, loc)
		}
		if b.CheckOut.IsSet {
			checkOut = formatDate(b.CheckOut.Val, loc)
		}
		t.Rows = append(t.Rows, []string{
			b.FullName,
			b.Email,
			b.Option.RoomName(),
			checkIn,
			checkOut,
			strconv.Itoa(b.Nights),
			strconv.Itoa(b.AmountDue),
			strings.Join(b.Roommates, ", "),
			b.SpecialRequests,
			formatDate(b.PaymentDeadline, loc),
			string(b.Status),
			yesNo(b.ConfirmationEmailSent),
			formatTimestamp(b.CreatedAt, loc),
		})
	}
	return t
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02")
}

func formatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

func toAny(row []string) []any {
	cells := make([]any, len(row))
	for i, cell := range row {
		cells[i] = cell
	}
	return cells
}
