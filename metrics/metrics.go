package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	catalogQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelgram",
			Name:      "catalog_queries_total",
			Help:      "Count of catalog searches by sort key.",
		},
		[]string{"sort"},
	)

	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelgram",
			Name:      "logins_total",
			Help:      "Count of login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelgram",
			Name:      "payments_total",
			Help:      "Count of payment submissions by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	bookingsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hotelgram",
			Name:      "bookings_confirmed_total",
			Help:      "Count of confirmed bookings.",
		},
	)

	stepTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotelgram",
			Name:      "flow_transitions_total",
			Help:      "Count of booking flow transitions by target step.",
		},
		[]string{"step"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(catalogQueries, logins, payments, bookingsConfirmed, stepTransitions)
	})
}

// Handler serves the prometheus exposition format.
func Handler() fiber.Handler {
	Register()
	return adaptor.HTTPHandler(promhttp.Handler())
}

func IncCatalogQuery(sort string) {
	catalogQueries.WithLabelValues(sort).Inc()
}

func IncLogin(outcome string) {
	logins.WithLabelValues(outcome).Inc()
}

func IncPayment(method, outcome string) {
	payments.WithLabelValues(method, outcome).Inc()
}

func IncBookingConfirmed() {
	bookingsConfirmed.Inc()
}

func IncTransition(step string) {
	stepTransitions.WithLabelValues(step).Inc()
}
