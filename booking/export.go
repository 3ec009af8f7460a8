package booking

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/xuri/excelize/v2"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/nav"
	"github.com/akhilcoder7733/hotelgram/user"
)

const summarySheet = "Summary"

var summaryHeaders = []string{
	"BookingID", "Hotel", "City", "CheckinDate", "CheckoutDate", "NumberOfNights",
	"Guests", "Rooms", "Subtotal", "Taxes", "Total", "PaymentMethod", "BookedAt",
}

// Summary writes records to an xlsx workbook.
func Summary(records []Record) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, header := range summaryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(summarySheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, r := range records {
		row := []any{
			r.BookingID, r.HotelName, r.City, r.CheckIn, r.CheckOut, r.Nights,
			r.Guests, r.Rooms, r.Subtotal, r.Taxes, r.Total, string(r.PaymentMethod),
			r.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

// Summary params {start, end}, both optional, bound the check-in date.
func (h *Handler) Summary(c fiber.Ctx) error {
	s, ok := user.Current(c)
	if !ok {
		return &apperr.Unauthenticated{From: string(nav.Profile)}
	}

	records, err := h.Ledger.ForUser(c.UserContext(), s.UserID, c.Query("start"), c.Query("end"))
	if err != nil {
		return err
	}

	buf, err := Summary(records)
	if err != nil {
		return fmt.Errorf("generate summary: %w", err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="summary.xlsx"`)
	return c.Status(http.StatusOK).Send(buf.Bytes())
}
