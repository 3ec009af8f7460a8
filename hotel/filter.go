package hotel

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/akhilcoder7733/hotelgram/apperr"
)

type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortPriceLow  SortKey = "price_low"
	SortPriceHigh SortKey = "price_high"
	SortRating    SortKey = "rating"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortFeatured, SortPriceLow, SortPriceHigh, SortRating:
		return true
	}
	return false
}

// Filter is the catalog view's filter state. Price bounds are inclusive.
type Filter struct {
	Category Category   `json:"category"`
	Price    [2]float64 `json:"price"`
	Rating   float64    `json:"rating"`
	SortBy   SortKey    `json:"sortBy"`
}

// DefaultFilter matches everything the price slider can reach, featured first.
func DefaultFilter() Filter {
	return Filter{
		Category: All,
		Price:    [2]float64{1000, 10000},
		Rating:   0,
		SortBy:   SortFeatured,
	}
}

// Reset puts f back to its defaults.
func (f *Filter) Reset() {
	*f = DefaultFilter()
}

func (f Filter) Validate() error {
	fields := map[string]string{}

	if f.Category != All && !f.Category.Valid() {
		fields["category"] = fmt.Sprintf("unknown category %q", f.Category)
	}
	if f.Price[0] < 0 || f.Price[1] < 0 || math.IsNaN(f.Price[0]) || math.IsNaN(f.Price[1]) {
		fields["price"] = "bounds must not be negative"
	} else if f.Price[0] > f.Price[1] {
		fields["price"] = "min must not exceed max"
	}
	if f.Rating < 0 || f.Rating > 5 || math.IsNaN(f.Rating) {
		fields["rating"] = "must be between 0 and 5"
	}
	if !f.SortBy.Valid() {
		fields["sortBy"] = fmt.Sprintf("unknown sort key %q", f.SortBy)
	}

	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

// Matches reports whether h passes the category, price and rating predicates.
func (f Filter) Matches(h Hotel) bool {
	return (f.Category == All || h.Category == f.Category) &&
		h.PricePerNight >= f.Price[0] &&
		h.PricePerNight <= f.Price[1] &&
		h.Rating >= f.Rating
}

// Apply derives the display list from catalog and f. The input is not
// modified. Sorting is stable, so ties keep catalog order.
func Apply(catalog []Hotel, f Filter) []Hotel {
	out := make([]Hotel, 0, len(catalog))
	for _, h := range catalog {
		if f.Matches(h) {
			out = append(out, h)
		}
	}

	switch f.SortBy {
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b Hotel) int {
			return cmp.Compare(a.PricePerNight, b.PricePerNight)
		})
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b Hotel) int {
			return cmp.Compare(b.PricePerNight, a.PricePerNight)
		})
	case SortRating:
		slices.SortStableFunc(out, func(a, b Hotel) int {
			return cmp.Compare(b.Rating, a.Rating)
		})
	case SortFeatured:
		slices.SortStableFunc(out, func(a, b Hotel) int {
			return cmp.Compare(rank(b.Featured), rank(a.Featured))
		})
	}

	return out
}

func rank(featured bool) int {
	if featured {
		return 1
	}
	return 0
}
