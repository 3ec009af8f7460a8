package hotel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhilcoder7733/hotelgram/apperr"
)

func ids(hotels []Hotel) []string {
	out := make([]string, 0, len(hotels))
	for _, h := range hotels {
		out = append(out, h.ID)
	}
	return out
}

func sampleCatalog() []Hotel {
	return []Hotel{
		{ID: "a", Category: Business, PricePerNight: 4000, Rating: 4},
		{ID: "b", Category: Luxury, PricePerNight: 9000, Rating: 5, Featured: true},
		{ID: "c", Category: Budget, PricePerNight: 1200, Rating: 3},
		{ID: "d", Category: Resort, PricePerNight: 4000, Rating: 4.5, Featured: true},
		{ID: "e", Category: Budget, PricePerNight: 800, Rating: 2.5},
		{ID: "f", Category: Luxury, PricePerNight: 10000, Rating: 4},
	}
}

func TestApplyTwoHotelScenario(t *testing.T) {
	catalog := []Hotel{
		{ID: "h1", Category: Luxury, PricePerNight: 5000, Rating: 4.5, Featured: true},
		{ID: "h2", Category: Budget, PricePerNight: 1500, Rating: 3.0},
	}
	f := Filter{Category: All, Price: [2]float64{1000, 10000}, Rating: 0, SortBy: SortPriceLow}

	assert.Equal(t, []string{"h2", "h1"}, ids(Apply(catalog, f)))
}

func TestApplyEveryResultMatchesAllPredicates(t *testing.T) {
	catalog := sampleCatalog()

	for _, cat := range Categories() {
		for _, price := range [][2]float64{{0, 100000}, {1000, 10000}, {4000, 4000}, {5000, 1000}} {
			for _, rating := range []float64{0, 3, 4, 4.5, 5} {
				for _, key := range []SortKey{SortFeatured, SortPriceLow, SortPriceHigh, SortRating} {
					f := Filter{Category: cat, Price: price, Rating: rating, SortBy: key}
					for _, h := range Apply(catalog, f) {
						assert.True(t, cat == All || h.Category == cat, "category %v %+v", f, h)
						assert.True(t, h.PricePerNight >= price[0] && h.PricePerNight <= price[1], "price %v %+v", f, h)
						assert.GreaterOrEqual(t, h.Rating, rating, "rating %v %+v", f, h)
					}
				}
			}
		}
	}
}

func TestApplyPriceBoundsAreInclusive(t *testing.T) {
	f := Filter{Category: All, Price: [2]float64{4000, 9000}, SortBy: SortPriceLow}
	assert.Equal(t, []string{"a", "d", "b"}, ids(Apply(sampleCatalog(), f)))
}

func TestApplyOrdering(t *testing.T) {
	catalog := sampleCatalog()
	wide := [2]float64{0, 100000}

	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortPriceLow, []string{"e", "c", "a", "d", "b", "f"}},
		{SortPriceHigh, []string{"f", "b", "a", "d", "c", "e"}},
		{SortRating, []string{"b", "d", "a", "f", "c", "e"}},
		{SortFeatured, []string{"b", "d", "a", "c", "e", "f"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := Apply(catalog, Filter{Category: All, Price: wide, SortBy: tt.key})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplySortIsIdempotent(t *testing.T) {
	catalog := sampleCatalog()
	for _, key := range []SortKey{SortFeatured, SortPriceLow, SortPriceHigh, SortRating} {
		f := Filter{Category: All, Price: [2]float64{0, 100000}, SortBy: key}
		once := Apply(catalog, f)
		twice := Apply(once, f)
		assert.Equal(t, ids(once), ids(twice), string(key))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	catalog := sampleCatalog()
	before := ids(catalog)

	Apply(catalog, Filter{Category: All, Price: [2]float64{0, 100000}, SortBy: SortPriceHigh})
	assert.Equal(t, before, ids(catalog))
}

func TestApplyEmptyResultIsNotAnError(t *testing.T) {
	got := Apply(sampleCatalog(), Filter{Category: Resort, Price: [2]float64{0, 100}, SortBy: SortFeatured})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterValidate(t *testing.T) {
	require.NoError(t, DefaultFilter().Validate())

	bad := Filter{Category: "Castle", Price: [2]float64{500, 100}, Rating: 7, SortBy: "cheapest"}
	err := bad.Validate()

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "category")
	assert.Contains(t, verr.Fields, "price")
	assert.Contains(t, verr.Fields, "rating")
	assert.Contains(t, verr.Fields, "sortBy")
}

func TestFilterReset(t *testing.T) {
	f := Filter{Category: Budget, Price: [2]float64{1, 2}, Rating: 4, SortBy: SortRating}
	f.Reset()
	assert.Equal(t, DefaultFilter(), f)
}
