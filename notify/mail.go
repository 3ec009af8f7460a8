// Package notify sends booking confirmation receipts by email.
package notify

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/akhilcoder7733/hotelgram/booking"
	"github.com/akhilcoder7733/hotelgram/config"
)

//go:embed templates/receipt.html
var templates embed.FS

var receiptTemplate = template.Must(template.ParseFS(templates, "templates/receipt.html"))

type Receipt struct {
	AppName         string
	GuestName       string
	BookingID       string
	HotelName       string
	City            string
	CheckIn         string
	CheckOut        string
	Nights          int
	Guests          int
	Rooms           int
	Subtotal        float64
	Taxes           float64
	Total           float64
	PaymentMethod   string
	TransactionDate string
}

func NewReceipt(appName, guest string, r booking.Record) Receipt {
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return Receipt{
		AppName:         appName,
		GuestName:       guest,
		BookingID:       r.BookingID,
		HotelName:       r.HotelName,
		City:            r.City,
		CheckIn:         r.CheckIn,
		CheckOut:        r.CheckOut,
		Nights:          r.Nights,
		Guests:          r.Guests,
		Rooms:           r.Rooms,
		Subtotal:        r.Subtotal,
		Taxes:           r.Taxes,
		Total:           r.Total,
		PaymentMethod:   strings.ToUpper(string(r.PaymentMethod)),
		TransactionDate: created.Format("2006-01-02"),
	}
}

func (r Receipt) Render() (string, error) {
	var tpl bytes.Buffer
	if err := receiptTemplate.Execute(&tpl, r); err != nil {
		return "", err
	}
	return tpl.String(), nil
}

// Sender delivers a prepared message.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer emails a receipt for each confirmed booking.
type Mailer struct {
	appName string
	from    string
	sender  Sender
	logger  *logrus.Logger
}

// New returns a Mailer for cfg, or a notifier that only logs when mail is
// disabled.
func New(appName string, cfg config.MailConfig, logger *logrus.Logger) booking.Notifier {
	if !cfg.Enabled {
		return Noop{logger: logger}
	}
	return NewMailer(appName, cfg.From, gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password), logger)
}

func NewMailer(appName, from string, sender Sender, logger *logrus.Logger) *Mailer {
	return &Mailer{appName: appName, from: from, sender: sender, logger: logger}
}

func (m *Mailer) BookingConfirmed(ctx context.Context, r booking.Record, guest string) error {
	if r.Email == "" {
		return nil
	}

	body, err := NewReceipt(m.appName, guest, r).Render()
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", r.Email)
	msg.SetHeader("Subject", "Your booking "+r.BookingID+" is confirmed")
	msg.SetBody("text/html", body)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.sender.DialAndSend(msg); err != nil {
		return err
	}

	m.logger.WithFields(logrus.Fields{"path": "notify", "booking": r.BookingID, "to": r.Email}).Info("receipt sent")
	return nil
}

// Noop logs confirmations instead of mailing them.
type Noop struct {
	logger *logrus.Logger
}

func (n Noop) BookingConfirmed(_ context.Context, r booking.Record, _ string) error {
	n.logger.WithFields(logrus.Fields{"path": "notify", "booking": r.BookingID}).Debug("mail disabled, receipt not sent")
	return nil
}
