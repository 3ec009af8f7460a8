// Package pricing computes stay prices. Everything here is pure.
package pricing

import (
	"math"
	"time"
)

// TaxRate applies to the subtotal of every stay.
const TaxRate = 0.12

// DateLayout is the format of check-in and check-out dates.
const DateLayout = time.DateOnly

// Breakdown is the derived price of a draft booking.
type Breakdown struct {
	Nights   int     `json:"nights"`
	Subtotal float64 `json:"subtotal"`
	Taxes    float64 `json:"taxes"`
	Total    float64 `json:"total"`
}

// Empty is the price of a draft with no hotel.
func Empty() Breakdown {
	return Breakdown{Nights: 1}
}

// Quote prices a stay: subtotal = rate * nights * rooms, taxes are 12% of the
// subtotal rounded half up, total = subtotal + taxes.
func Quote(pricePerNight float64, nights, rooms int) Breakdown {
	subtotal := pricePerNight * float64(nights) * float64(rooms)
	taxes := roundHalfUp(subtotal * TaxRate)
	return Breakdown{
		Nights:   nights,
		Subtotal: subtotal,
		Taxes:    taxes,
		Total:    subtotal + taxes,
	}
}

// Nights counts calendar days between check-in and check-out. It falls back
// to a single night when either date is missing or unparseable, or when
// check-out is not after check-in.
func Nights(checkIn, checkOut string) int {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return 1
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return 1
	}

	days := int(out.Sub(in).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
