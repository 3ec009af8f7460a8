package booking

import (
	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/hotel"
	"github.com/akhilcoder7733/hotelgram/pricing"
)

type Dates struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

// Draft is the booking being put together. Price is derived: it is only
// recomputed by StartBooking and Reprice.
type Draft struct {
	Hotel  *hotel.Hotel      `json:"hotel"`
	Dates  Dates             `json:"dates"`
	Guests int               `json:"guests"`
	Rooms  int               `json:"rooms"`
	Price  pricing.Breakdown `json:"price"`
}

// EmptyDraft is the draft with nothing selected.
func EmptyDraft() Draft {
	return Draft{Guests: 1, Rooms: 1, Price: pricing.Empty()}
}

// StartBooking opens a draft for h with a provisional one night quote.
func StartBooking(h hotel.Hotel, dates Dates, guests, rooms int) (Draft, error) {
	if !h.Availability {
		return Draft{}, apperr.Invalid("hotel", "is not available for booking")
	}
	if err := occupancy(guests, rooms); err != nil {
		return Draft{}, err
	}

	return Draft{
		Hotel:  &h,
		Dates:  dates,
		Guests: guests,
		Rooms:  rooms,
		Price:  pricing.Quote(h.PricePerNight, 1, rooms),
	}, nil
}

// Partial holds the fields UpdateBooking merges; nil fields are left alone.
type Partial struct {
	Dates  *Dates
	Guests *int
	Rooms  *int
}

// UpdateBooking merges p into the draft. The price is left as it was.
func (d *Draft) UpdateBooking(p Partial) error {
	guests, rooms := d.Guests, d.Rooms
	if p.Guests != nil {
		guests = *p.Guests
	}
	if p.Rooms != nil {
		rooms = *p.Rooms
	}
	if err := occupancy(guests, rooms); err != nil {
		return err
	}

	if p.Dates != nil {
		d.Dates = *p.Dates
	}
	d.Guests, d.Rooms = guests, rooms
	return nil
}

// Reprice recomputes the breakdown from the hotel, the dates and the rooms.
func (d *Draft) Reprice() {
	if d.Hotel == nil {
		d.Price = pricing.Empty()
		return
	}
	nights := pricing.Nights(d.Dates.CheckIn, d.Dates.CheckOut)
	d.Price = pricing.Quote(d.Hotel.PricePerNight, nights, d.Rooms)
}

func (d *Draft) ResetBooking() {
	*d = EmptyDraft()
}

func (d Draft) Empty() bool {
	return d.Hotel == nil
}

func occupancy(guests, rooms int) error {
	fields := map[string]string{}
	if guests < 1 {
		fields["guests"] = "must be at least 1"
	}
	if rooms < 1 {
		fields["rooms"] = "must be at least 1"
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}
