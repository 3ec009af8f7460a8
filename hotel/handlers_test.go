package hotel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/logging"
	"github.com/akhilcoder7733/hotelgram/task"
)

func newHotelApp(c *Catalog) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler})
	h := NewHandler(c)
	app.Get("/hotels", h.SearchWithFilter)
	app.Get("/hotels/categories", h.GetAllCategories)
	app.Get("/hotels/:id", h.GetById)
	return app
}

func get(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestSearchWhileLoading(t *testing.T) {
	app := newHotelApp(NewCatalog(nil, task.NewManual(), time.Second, logging.Discard()))

	var body struct {
		Loading bool    `json:"loading"`
		Hotels  []Hotel `json:"hotels"`
	}
	assert.Equal(t, http.StatusOK, get(t, app, "/hotels", &body))
	assert.True(t, body.Loading)
	assert.Empty(t, body.Hotels)

	var msg apperr.ErrorMessage
	assert.Equal(t, http.StatusServiceUnavailable, get(t, app, "/hotels/categories", &msg))
	assert.True(t, msg.Retry)
}

func TestSearchWithFilter(t *testing.T) {
	app := newHotelApp(loadedCatalog(t))

	tests := []struct {
		name    string
		query   string
		ids     []string
		ordered bool
	}{
		{"defaults", "", []string{"h1", "h2", "h3", "h4", "h5", "h6", "h7", "h8"}, false},
		{"category", "?category=Resort", []string{"h2", "h6"}, false},
		{"price band", "?minPrice=3000&maxPrice=5000&sortBy=price_low", []string{"h7", "h3"}, true},
		{"cheapest first", "?category=Budget&sortBy=price_low", []string{"h8", "h4"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				Count  int     `json:"count"`
				Hotels []Hotel `json:"hotels"`
			}
			require.Equal(t, http.StatusOK, get(t, app, "/hotels"+tt.query, &body))

			var ids []string
			for _, h := range body.Hotels {
				ids = append(ids, h.ID)
			}
			if tt.ordered {
				assert.Equal(t, tt.ids, ids)
			} else {
				assert.ElementsMatch(t, tt.ids, ids)
			}
			assert.Equal(t, len(tt.ids), body.Count)
		})
	}
}

func TestSearchRejectsBadQuery(t *testing.T) {
	app := newHotelApp(loadedCatalog(t))

	var msg apperr.ErrorMessage
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, app, "/hotels?minPrice=cheap&sortBy=nearest", &msg))
	assert.Contains(t, msg.Fields, "minPrice")
}

func TestGetById(t *testing.T) {
	app := newHotelApp(loadedCatalog(t))

	var body struct {
		Hotel    Hotel `json:"hotel"`
		Bookable bool  `json:"bookable"`
		Quote    struct {
			Nights int     `json:"nights"`
			Total  float64 `json:"total"`
		} `json:"quote"`
	}
	require.Equal(t, http.StatusOK, get(t, app, "/hotels/h4", &body))
	assert.Equal(t, "h4", body.Hotel.ID)
	assert.True(t, body.Bookable)
	assert.Equal(t, 1, body.Quote.Nights)
	assert.Equal(t, 1680.0, body.Quote.Total)

	var msg apperr.ErrorMessage
	assert.Equal(t, http.StatusNotFound, get(t, app, "/hotels/h404", &msg))
	assert.Equal(t, "/booking", msg.Back)
}

func TestGetAllCategories(t *testing.T) {
	app := newHotelApp(loadedCatalog(t))

	var cats []Category
	require.Equal(t, http.StatusOK, get(t, app, "/hotels/categories", &cats))
	assert.Equal(t, []Category{All, Luxury, Resort, Business, Budget}, cats)
}
