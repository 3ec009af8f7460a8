package main

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/timeout"

	"github.com/akhilcoder7733/hotelgram/booking"
	"github.com/akhilcoder7733/hotelgram/hotel"
	"github.com/akhilcoder7733/hotelgram/nav"
	"github.com/akhilcoder7733/hotelgram/user"
)

func (s *server) requireAuth() fiber.Handler {
	return user.RequireSession(s.auth, s.cfg.Session)
}

func (s *server) optionalAuth() fiber.Handler {
	return user.OptionalSession(s.auth, s.cfg.Session)
}

// timed gives h a request context that ends after the configured timeout;
// work still pending then is dropped and the client gets a 408.
func (s *server) timed(h fiber.Handler) fiber.Handler {
	return timeout.New(h, s.cfg.App.RequestTimeout)
}

func hotelRoutes(r fiber.Router, h *hotel.Handler) {
	r.Get("", h.SearchWithFilter) // optional_parameter [category, minPrice, maxPrice, rating, sortBy]
	r.Get("/categories", h.GetAllCategories)
	r.Get("/:id", h.GetById)
}

func (s *server) userRoutes(r fiber.Router, h *user.Handler) {
	// fiber runs the trailing middleware before the handler
	r.Post("/auth/login", s.timed(h.Login), s.limiter.Handler())

	r.Use(s.requireAuth())
	r.Post("/auth/logout", h.Logout)
	r.Get("/me", h.Me)
}

// visitors without a session may look at hotels; everything else answers 401
// with the path to come back to after login
func (s *server) bookingRoutes(r fiber.Router, h *booking.Handler) {
	r.Use(s.optionalAuth())
	r.Get("/current", h.Current)
	r.Post("/select/:id", h.Select)
	r.Post("/start", h.Start)
	r.Get("/proceed", h.Screen(booking.StepProceed))
	r.Post("/proceed", h.Proceed)
	r.Get("/payment", h.Screen(booking.StepPayment))
	r.Post("/payment", s.timed(h.Pay))
	r.Post("/payment/retry", h.RetryPayment)
	r.Get("/confirmation", h.Screen(booking.StepConfirmation))
	r.Post("/restart", h.Restart)
	r.Delete("/current", h.Abandon)

	// profile
	r.Get("", s.timed(h.List))
	r.Get("/summary", s.timed(h.Summary))
}

func (s *server) navRoutes(r fiber.Router) {
	r.Use(s.optionalAuth())
	r.Get("", nav.Handler(func(c fiber.Ctx) bool {
		_, ok := user.Current(c)
		return ok
	}))
}
