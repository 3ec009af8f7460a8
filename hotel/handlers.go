package hotel

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/metrics"
	"github.com/akhilcoder7733/hotelgram/pricing"
)

type Handler struct {
	Catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{Catalog: catalog}
}

// SearchWithFilter params {category, minPrice, maxPrice, rating, sortBy};
// anything omitted falls back to the default filter.
func (h *Handler) SearchWithFilter(c fiber.Ctx) error {
	if !h.Catalog.Loaded() {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"loading": true,
			"hotels":  []Hotel{},
		})
	}

	filter, err := filterFromQuery(c)
	if err != nil {
		return err
	}

	hotels, err := h.Catalog.Search(filter)
	if err != nil {
		return err
	}
	metrics.IncCatalogQuery(string(filter.SortBy))

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"loading": false,
		"filters": filter,
		"count":   len(hotels),
		"hotels":  hotels,
	})
}

// GetById returns the hotel with a provisional one night quote.
func (h *Handler) GetById(c fiber.Ctx) error {
	id := c.Params("id")

	if id == "" {
		return apperr.Invalid("id", "required")
	}

	found, err := h.Catalog.ByID(id)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"hotel":    found,
		"quote":    pricing.Quote(found.PricePerNight, 1, 1),
		"bookable": found.Availability,
	})
}

func (h *Handler) GetAllCategories(c fiber.Ctx) error {
	categories, err := h.Catalog.Stocked(c.UserContext())
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(categories)
}

func filterFromQuery(c fiber.Ctx) (Filter, error) {
	filter := DefaultFilter()
	fields := map[string]string{}

	if v := c.Query("category"); v != "" {
		filter.Category = Category(v)
	}
	if v := c.Query("sortBy"); v != "" {
		filter.SortBy = SortKey(v)
	}

	number := func(key string, dst *float64) {
		v := c.Query(key)
		if v == "" {
			return
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fields[key] = "must be a number"
			return
		}
		*dst = n
	}
	number("minPrice", &filter.Price[0])
	number("maxPrice", &filter.Price[1])
	number("rating", &filter.Rating)

	if len(fields) > 0 {
		return filter, &apperr.ValidationError{Fields: fields}
	}
	return filter, filter.Validate()
}
