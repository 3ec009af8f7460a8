package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"gorm.io/gorm"
)

const (
	charset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength  = 8
	idPrefix  = "HG-"
	idRetries = 5
)

// Record is a confirmed booking, kept for the profile page.
type Record struct {
	gorm.Model
	BookingID     string  `json:"bookingId" gorm:"uniqueIndex"`
	UserID        string  `json:"userId" gorm:"index"`
	Email         string  `json:"email"`
	HotelID       string  `json:"hotelId"`
	HotelName     string  `json:"hotelName"`
	City          string  `json:"city"`
	CheckIn       string  `json:"checkIn"`
	CheckOut      string  `json:"checkOut"`
	Guests        int     `json:"guests"`
	Rooms         int     `json:"rooms"`
	Nights        int     `json:"nights"`
	Subtotal      float64 `json:"subtotal"`
	Taxes         float64 `json:"taxes"`
	Total         float64 `json:"total"`
	PaymentMethod Method  `json:"paymentMethod"`
}

func newRecord(d Draft, method Method, userID, email string) Record {
	r := Record{
		UserID:        userID,
		Email:         email,
		CheckIn:       d.Dates.CheckIn,
		CheckOut:      d.Dates.CheckOut,
		Guests:        d.Guests,
		Rooms:         d.Rooms,
		Nights:        d.Price.Nights,
		Subtotal:      d.Price.Subtotal,
		Taxes:         d.Price.Taxes,
		Total:         d.Price.Total,
		PaymentMethod: method,
	}
	if d.Hotel != nil {
		r.HotelID, r.HotelName, r.City = d.Hotel.ID, d.Hotel.Name, d.Hotel.City
	}
	return r
}

// Ledger stores confirmed bookings and hands out their ids.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Confirm assigns r a booking id no other record holds and saves it.
func (l *Ledger) Confirm(ctx context.Context, r Record) (Record, error) {
	db := l.db.WithContext(ctx)

	for i := 0; i < idRetries; i++ {
		id, err := generateBookingID()
		if err != nil {
			return Record{}, err
		}

		var taken int64
		if err := db.Model(&Record{}).Where("booking_id = ?", id).Count(&taken).Error; err != nil {
			return Record{}, err
		}
		if taken > 0 {
			continue
		}

		r.BookingID = id
		if result := db.Create(&r); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				continue
			}
			return Record{}, result.Error
		}
		return r, nil
	}
	return Record{}, fmt.Errorf("no free booking id after %d attempts", idRetries)
}

// ForUser lists a user's bookings, newest first. Empty bounds are open.
func (l *Ledger) ForUser(ctx context.Context, userID, from, to string) ([]Record, error) {
	query := l.db.WithContext(ctx).Where("user_id = ?", userID)
	if from != "" {
		query = query.Where("check_in >= ?", from)
	}
	if to != "" {
		query = query.Where("check_in <= ?", to)
	}

	var records []Record
	if result := query.Order("created_at desc, id desc").Find(&records); result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func generateBookingID() (string, error) {
	random, err := generateRandomString(idLength, charset)
	if err != nil {
		return "", err
	}
	return idPrefix + random, nil
}

// generateRandomString generates a random string of fixed length
func generateRandomString(length int, charset string) (string, error) {
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}
