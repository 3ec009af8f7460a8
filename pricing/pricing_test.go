package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteSingleNight(t *testing.T) {
	got := Quote(2000, 1, 1)
	assert.Equal(t, Breakdown{Nights: 1, Subtotal: 2000, Taxes: 240, Total: 2240}, got)
}

func TestQuoteInvariants(t *testing.T) {
	for _, rate := range []float64{1, 99, 1100, 1499.5, 2000, 8500, 9999} {
		for nights := 1; nights <= 14; nights++ {
			for rooms := 1; rooms <= 4; rooms++ {
				q := Quote(rate, nights, rooms)
				assert.Equal(t, rate*float64(nights)*float64(rooms), q.Subtotal)
				assert.Equal(t, math.Floor(q.Subtotal*TaxRate+0.5), q.Taxes)
				assert.Equal(t, q.Subtotal+q.Taxes, q.Total)
				assert.Equal(t, nights, q.Nights)
			}
		}
	}
}

func TestQuoteRoundsTaxesHalfUp(t *testing.T) {
	// 12% of 125 is 15.0, of 129 is 15.48, of 130 is 15.6
	assert.Equal(t, 15.0, Quote(125, 1, 1).Taxes)
	assert.Equal(t, 15.0, Quote(129, 1, 1).Taxes)
	assert.Equal(t, 16.0, Quote(130, 1, 1).Taxes)
	// 12% of 12.5 is exactly 1.5
	assert.Equal(t, 2.0, Quote(12.5, 1, 1).Taxes)
}

func TestQuoteScalesWithRooms(t *testing.T) {
	q := Quote(1500, 2, 3)
	assert.Equal(t, 9000.0, q.Subtotal)
	assert.Equal(t, 1080.0, q.Taxes)
	assert.Equal(t, 10080.0, q.Total)
}

func TestNights(t *testing.T) {
	tests := []struct {
		name      string
		in, out   string
		wantNight int
	}{
		{"both empty", "", "", 1},
		{"missing checkout", "2026-10-01", "", 1},
		{"one night", "2026-10-01", "2026-10-02", 1},
		{"five nights", "2026-10-01", "2026-10-06", 5},
		{"across month end", "2026-01-30", "2026-02-02", 3},
		{"same day", "2026-10-01", "2026-10-01", 1},
		{"reversed", "2026-10-05", "2026-10-01", 1},
		{"garbage", "tomorrow", "2026-10-01", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantNight, Nights(tt.in, tt.out))
		})
	}
}

func TestEmpty(t *testing.T) {
	assert.Equal(t, Breakdown{Nights: 1}, Empty())
}
