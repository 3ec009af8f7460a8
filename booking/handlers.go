package booking

import (
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/nav"
	"github.com/akhilcoder7733/hotelgram/user"
)

type Handler struct {
	Flows  *Registry
	Ledger *Ledger
}

func NewHandler(flows *Registry, ledger *Ledger) *Handler {
	return &Handler{Flows: flows, Ledger: ledger}
}

// flow is the caller's flow, or a throwaway one for a visitor without a
// session.
func (h *Handler) flow(c fiber.Ctx) *Flow {
	if s, ok := user.Current(c); ok {
		return h.Flows.For(s)
	}
	return h.Flows.Anonymous()
}

func render(c fiber.Ctx, s Step) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"step": s.Name(),
		"view": s,
	})
}

func (h *Handler) Current(c fiber.Ctx) error {
	f := h.flow(c)
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"step":    f.Current().Name(),
		"view":    f.Current(),
		"draft":   f.Draft(),
		"payment": f.Payment(),
	})
}

func (h *Handler) Select(c fiber.Ctx) error {
	step, err := h.flow(c).Select(c.Params("id"))
	if err != nil {
		return err
	}
	return render(c, step)
}

// Start body {hotelId, dates: {checkIn, checkOut}, guests}
func (h *Handler) Start(c fiber.Ctx) error {
	var req StartRequest
	if err := c.Bind().JSON(&req); err != nil {
		return apperr.Invalid("body", "must be a JSON object")
	}

	step, err := h.flow(c).Start(req)
	if err != nil {
		return err
	}
	return render(c, step)
}

func (h *Handler) Proceed(c fiber.Ctx) error {
	var form ProceedForm
	if err := c.Bind().JSON(&form); err != nil {
		return apperr.Invalid("body", "must be a JSON object")
	}

	step, err := h.flow(c).Proceed(form)
	if err != nil {
		return err
	}
	return render(c, step)
}

// Pay blocks for the simulated gateway delay.
func (h *Handler) Pay(c fiber.Ctx) error {
	var details PaymentDetails
	if err := c.Bind().JSON(&details); err != nil {
		return apperr.Invalid("body", "must be a JSON object")
	}

	step, err := h.flow(c).Pay(c.UserContext(), details)
	if err != nil {
		return err
	}
	return render(c, step)
}

func (h *Handler) RetryPayment(c fiber.Ctx) error {
	step, err := h.flow(c).RetryPayment()
	if err != nil {
		return err
	}
	return render(c, step)
}

func (h *Handler) Restart(c fiber.Ctx) error {
	if _, ok := user.Current(c); !ok {
		return &apperr.Unauthenticated{From: string(nav.Booking)}
	}
	return render(c, h.flow(c).Restart())
}

func (h *Handler) Abandon(c fiber.Ctx) error {
	if _, ok := user.Current(c); !ok {
		return &apperr.Unauthenticated{From: string(nav.Booking)}
	}
	return render(c, h.flow(c).Abandon())
}

// Screen renders a step for direct navigation.
func (h *Handler) Screen(name StepName) fiber.Handler {
	return func(c fiber.Ctx) error {
		step, err := h.flow(c).Screen(name)
		if err != nil {
			return err
		}
		return render(c, step)
	}
}

// List is the profile page: the caller's confirmed bookings, newest first.
// Optional params {start, end} bound the check-in date.
func (h *Handler) List(c fiber.Ctx) error {
	s, ok := user.Current(c)
	if !ok {
		return &apperr.Unauthenticated{From: string(nav.Profile)}
	}

	records, err := h.Ledger.ForUser(c.UserContext(), s.UserID, c.Query("start"), c.Query("end"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"count":    len(records),
		"bookings": records,
	})
}
