package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/akhilcoder7733/hotelgram/booking"
	"github.com/akhilcoder7733/hotelgram/config"
	"github.com/akhilcoder7733/hotelgram/logging"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (s *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m...)
	return nil
}

var record = booking.Record{
	BookingID: "HG-7Q2K9ZXA", Email: "ana@example.com", HotelName: "Cloud Nine Hill Resort", City: "Munnar",
	CheckIn: "2026-05-01", CheckOut: "2026-05-03", Nights: 2, Guests: 2, Rooms: 1,
	Subtotal: 10800, Taxes: 1296, Total: 12096, PaymentMethod: booking.Card,
}

func TestReceiptRender(t *testing.T) {
	body, err := NewReceipt("HOTELGRAM", "ana", record).Render()
	require.NoError(t, err)

	assert.Contains(t, body, "HG-7Q2K9ZXA")
	assert.Contains(t, body, "Cloud Nine Hill Resort, Munnar")
	assert.Contains(t, body, "₹12096.00")
	assert.Contains(t, body, "CARD")
	assert.Contains(t, body, "Hi ana,")
}

func TestMailerSendsReceipt(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer("HOTELGRAM", "bookings@hotelgram.app", sender, logging.Discard())

	require.NoError(t, m.BookingConfirmed(context.Background(), record, "ana"))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"ana@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Your booking HG-7Q2K9ZXA is confirmed"}, msg.GetHeader("Subject"))

	var raw bytes.Buffer
	_, err := msg.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "HG-7Q2K9ZXA")
}

func TestMailerSkipsRecordsWithoutEmail(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailer("HOTELGRAM", "bookings@hotelgram.app", sender, logging.Discard())

	r := record
	r.Email = ""
	require.NoError(t, m.BookingConfirmed(context.Background(), r, "ana"))
	assert.Empty(t, sender.sent)
}

func TestMailerReportsSendFailure(t *testing.T) {
	boom := errors.New("smtp down")
	m := NewMailer("HOTELGRAM", "bookings@hotelgram.app", &fakeSender{err: boom}, logging.Discard())

	assert.ErrorIs(t, m.BookingConfirmed(context.Background(), record, "ana"), boom)
}

func TestNewDisabledIsNoop(t *testing.T) {
	n := New("HOTELGRAM", config.MailConfig{}, logging.Discard())
	assert.IsType(t, Noop{}, n)
	assert.NoError(t, n.BookingConfirmed(context.Background(), record, "ana"))

	assert.IsType(t, &Mailer{}, New("HOTELGRAM", config.MailConfig{Enabled: true, Host: "localhost", Port: 25}, logging.Discard()))
}
