package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/hotel"
	"github.com/akhilcoder7733/hotelgram/metrics"
	"github.com/akhilcoder7733/hotelgram/nav"
	"github.com/akhilcoder7733/hotelgram/pricing"
	"github.com/akhilcoder7733/hotelgram/user"
)

type StepName string

const (
	StepBrowsing     StepName = "browsing"
	StepDetails      StepName = "details"
	StepProceed      StepName = "proceed"
	StepPayment      StepName = "payment"
	StepConfirmation StepName = "confirmation"
	StepPlaceholder  StepName = "placeholder"
)

// Step is one screen of the booking flow. Each variant carries only what is
// valid on that screen.
type Step interface {
	Name() StepName
	step()
}

type Browsing struct{}

type Details struct {
	Hotel hotel.Hotel       `json:"hotel"`
	Quote pricing.Breakdown `json:"quote"`
}

type Proceed struct {
	Draft Draft `json:"draft"`
}

type PaymentStep struct {
	Draft   Draft   `json:"draft"`
	Payment Payment `json:"payment"`
}

type Confirmation struct {
	BookingID string `json:"bookingId"`
	Draft     Draft  `json:"draft"`
}

// Placeholder stands in for a screen whose preconditions are not met. It
// never carries booking data.
type Placeholder struct {
	Screen  StepName `json:"screen"`
	Message string   `json:"message"`
	Back    string   `json:"back"`
}

func (Browsing) Name() StepName     { return StepBrowsing }
func (Details) Name() StepName      { return StepDetails }
func (Proceed) Name() StepName      { return StepProceed }
func (PaymentStep) Name() StepName  { return StepPayment }
func (Confirmation) Name() StepName { return StepConfirmation }
func (Placeholder) Name() StepName  { return StepPlaceholder }

func (Browsing) step()     {}
func (Details) step()      {}
func (Proceed) step()      {}
func (PaymentStep) step()  {}
func (Confirmation) step() {}
func (Placeholder) step()  {}

const (
	noBooking  = "No booking in progress"
	finalizing = "Finalizing your booking…"
)

// HotelSource finds catalog hotels.
type HotelSource interface {
	ByID(id string) (hotel.Hotel, error)
}

// Notifier is told about every confirmed booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, r Record, name string) error
}

type Deps struct {
	Hotels   HotelSource
	Gateway  Gateway
	Ledger   *Ledger
	Notifier Notifier
	Logger   *logrus.Logger
}

// confirmation outlives the draft, which is reset once the booking is made.
type confirmation struct {
	Confirmed bool
	BookingID string
	Draft     Draft
}

// Flow is the booking flow of one session. All state changes go through its
// methods; the lock is never held while waiting on the gateway.
type Flow struct {
	deps    *Deps
	session *user.Session

	mu           sync.Mutex
	step         Step
	draft        Draft
	payment      Payment
	attempt      int
	confirmation confirmation
}

// NewFlow starts a flow at Browsing. A nil session is an anonymous visitor,
// who may browse and look at hotels but not book.
func NewFlow(deps *Deps, session *user.Session) *Flow {
	return &Flow{
		deps:    deps,
		session: session,
		step:    Browsing{},
		draft:   EmptyDraft(),
		payment: Payment{State: Idle},
	}
}

func (f *Flow) authenticated() bool {
	return f.session != nil
}

func (f *Flow) moveTo(s Step) Step {
	f.step = s
	metrics.IncTransition(string(s.Name()))
	return s
}

// Current is the step the flow is on.
func (f *Flow) Current() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Draft returns a copy of the draft.
func (f *Flow) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *Flow) Payment() Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payment
}

func (f *Flow) Browse() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moveTo(Browsing{})
}

// Select shows a hotel. No session is needed to look.
func (f *Flow) Select(hotelID string) (Step, error) {
	h, err := f.deps.Hotels.ByID(hotelID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moveTo(Details{Hotel: h, Quote: pricing.Quote(h.PricePerNight, 1, 1)}), nil
}

type StartRequest struct {
	HotelID string `json:"hotelId"`
	Dates   Dates  `json:"dates"`
	Guests  int    `json:"guests"`
}

// Start opens a draft for the hotel and moves to Proceed. Starting over after
// a confirmation drops that confirmation.
func (f *Flow) Start(req StartRequest) (Step, error) {
	if req.HotelID == "" {
		if d, ok := f.Current().(Details); ok {
			req.HotelID = d.Hotel.ID
		}
	}
	if req.HotelID == "" {
		return nil, apperr.Invalid("hotelId", "required")
	}
	if !f.authenticated() {
		return nil, &apperr.Unauthenticated{From: "/booking/" + req.HotelID}
	}
	if req.Guests == 0 {
		req.Guests = 1
	}

	h, err := f.deps.Hotels.ByID(req.HotelID)
	if err != nil {
		return nil, err
	}
	draft, err := StartBooking(h, req.Dates, req.Guests, 1)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.payment.State == Processing {
		return nil, apperr.ErrPaymentInFlight()
	}
	f.resetPayment()
	f.confirmation = confirmation{}
	f.draft = draft
	return f.moveTo(Proceed{Draft: f.draft}), nil
}

type ProceedForm struct {
	CheckIn  string `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"checkOut" validate:"required,datetime=2006-01-02"`
	Guests   int    `json:"guests" validate:"required,min=1"`
	Rooms    int    `json:"rooms" validate:"required,min=1"`
}

func (p ProceedForm) Validate() error {
	if err := apperr.Validate(p); err != nil {
		return err
	}
	in, _ := time.Parse(pricing.DateLayout, p.CheckIn)
	out, _ := time.Parse(pricing.DateLayout, p.CheckOut)
	if out.Before(in) {
		return apperr.Invalid("checkOut", "must not be before check-in")
	}
	return nil
}

// Proceed takes the stay details, reprices the draft and moves to Payment.
func (f *Flow) Proceed(form ProceedForm) (Step, error) {
	if !f.authenticated() {
		return nil, &apperr.Unauthenticated{From: string(nav.Proceed)}
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editable(StepProceed); err != nil {
		return nil, err
	}

	err := f.draft.UpdateBooking(Partial{
		Dates:  &Dates{CheckIn: form.CheckIn, CheckOut: form.CheckOut},
		Guests: &form.Guests,
		Rooms:  &form.Rooms,
	})
	if err != nil {
		return nil, err
	}
	f.draft.Reprice()
	f.resetPayment()
	return f.moveTo(PaymentStep{Draft: f.draft, Payment: f.payment}), nil
}

// editable reports whether the draft may still change: there is one, it is
// not confirmed and no payment is running.
func (f *Flow) editable(screen StepName) error {
	if f.confirmation.Confirmed {
		return &apperr.StateMismatch{Step: string(screen), Reason: "booking already confirmed", Back: string(nav.Confirmation)}
	}
	if f.draft.Empty() {
		return &apperr.StateMismatch{Step: string(screen), Reason: "no booking in progress", Back: string(nav.Booking)}
	}
	if f.payment.State == Processing {
		return apperr.ErrPaymentInFlight()
	}
	return nil
}

// Pay charges the draft. A second call while a charge is running is
// rejected, and so is a call after a failure until RetryPayment. On success
// the booking is confirmed and recorded and the draft reset; on failure the
// entered details are kept, and a submission without a method reuses them.
// If ctx ends while the gateway is working the outcome is dropped and payment
// goes back to idle.
func (f *Flow) Pay(ctx context.Context, details PaymentDetails) (Step, error) {
	if !f.authenticated() {
		return nil, &apperr.Unauthenticated{From: string(nav.Payment)}
	}
	details.normalize()

	f.mu.Lock()
	if err := f.editable(StepPayment); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if _, ok := f.step.(PaymentStep); !ok {
		f.mu.Unlock()
		return nil, &apperr.StateMismatch{Step: string(StepPayment), Reason: "stay details not entered", Back: string(nav.Proceed)}
	}
	if f.payment.State == Failed {
		f.mu.Unlock()
		return nil, &apperr.StateMismatch{Step: string(StepPayment), Reason: "retry the failed payment first", Back: string(nav.Payment)}
	}
	if details.Method == "" {
		details = f.payment.Details
	}
	f.payment.Details = details
	if err := details.Validate(); err != nil {
		f.mu.Unlock()
		return nil, err
	}

	f.attempt++
	attempt := f.attempt
	f.payment.State = Processing
	f.payment.Error = ""
	draft := f.draft
	f.step = PaymentStep{Draft: draft, Payment: f.payment}
	f.mu.Unlock()

	err := f.deps.Gateway.Charge(ctx, draft.Price.Total, details.Method)

	f.mu.Lock()
	defer f.mu.Unlock()

	if attempt != f.attempt {
		// restarted or abandoned while charging
		return nil, &apperr.StateMismatch{Step: string(StepPayment), Reason: "booking changed during payment", Back: string(nav.Booking)}
	}

	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil:
		f.payment.State = Idle
		f.step = PaymentStep{Draft: f.draft, Payment: f.payment}
		metrics.IncPayment(string(details.Method), "cancelled")
		if err == nil {
			err = ctx.Err()
		}
		return nil, err
	case err != nil:
		f.payment.State = Failed
		f.payment.Error = err.Error()
		f.step = PaymentStep{Draft: f.draft, Payment: f.payment}
		metrics.IncPayment(string(details.Method), "declined")
		return nil, err
	}

	record, err := f.deps.Ledger.Confirm(ctx, newRecord(draft, details.Method, f.session.UserID, f.session.Email))
	if err != nil {
		f.payment.State = Failed
		f.payment.Error = "could not record the booking"
		f.step = PaymentStep{Draft: f.draft, Payment: f.payment}
		return nil, err
	}

	f.payment.State = Success
	f.confirmation = confirmation{Confirmed: true, BookingID: record.BookingID, Draft: draft}
	f.draft.ResetBooking()
	metrics.IncPayment(string(details.Method), "success")
	metrics.IncBookingConfirmed()
	f.notify(record)

	f.deps.Logger.WithFields(logrus.Fields{"path": "booking/flow", "booking": record.BookingID, "user": record.UserID}).Info("booking confirmed")
	return f.moveTo(Confirmation{BookingID: record.BookingID, Draft: draft}), nil
}

func (f *Flow) notify(r Record) {
	if f.deps.Notifier == nil {
		return
	}
	name := f.session.Name
	go func() {
		if err := f.deps.Notifier.BookingConfirmed(context.Background(), r, name); err != nil {
			f.deps.Logger.WithFields(logrus.Fields{"path": "booking/flow", "booking": r.BookingID}).WithError(err).Warn("confirmation not sent")
		}
	}()
}

// RetryPayment clears a failed payment, keeping the entered details.
func (f *Flow) RetryPayment() (Step, error) {
	if !f.authenticated() {
		return nil, &apperr.Unauthenticated{From: string(nav.Payment)}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.payment.State {
	case Processing:
		return nil, apperr.ErrPaymentInFlight()
	case Failed:
		f.payment.State = Idle
		f.payment.Error = ""
	}

	s := f.screen(StepPayment)
	if _, ok := s.(PaymentStep); ok {
		f.step = s
	}
	return s, nil
}

// Restart drops the draft, the payment and the confirmation.
func (f *Flow) Restart() Step {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.draft.ResetBooking()
	f.resetPayment()
	f.confirmation = confirmation{}
	return f.moveTo(Browsing{})
}

// Abandon drops the draft and any payment; a confirmation already made stays.
func (f *Flow) Abandon() Step {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.draft.ResetBooking()
	f.resetPayment()
	return f.moveTo(Browsing{})
}

// resetPayment goes back to idle and orphans any charge in flight.
func (f *Flow) resetPayment() {
	f.attempt++
	f.payment = Payment{State: Idle}
}

// Screen renders name for direct navigation. Missing preconditions give a
// Placeholder instead of an error.
func (f *Flow) Screen(name StepName) (Step, error) {
	if !f.authenticated() {
		return nil, &apperr.Unauthenticated{From: screenPath(name)}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.screen(name), nil
}

func (f *Flow) screen(name StepName) Step {
	switch name {
	case StepProceed:
		if f.draft.Empty() {
			return Placeholder{Screen: name, Message: noBooking, Back: string(nav.Booking)}
		}
		return Proceed{Draft: f.draft}
	case StepPayment:
		if f.draft.Empty() {
			return Placeholder{Screen: name, Message: noBooking, Back: string(nav.Booking)}
		}
		return PaymentStep{Draft: f.draft, Payment: f.payment}
	case StepConfirmation:
		if !f.confirmation.Confirmed {
			return Placeholder{Screen: name, Message: finalizing, Back: string(nav.Booking)}
		}
		return Confirmation{BookingID: f.confirmation.BookingID, Draft: f.confirmation.Draft}
	case StepDetails:
		if d, ok := f.step.(Details); ok {
			return d
		}
		return Placeholder{Screen: name, Message: "No hotel selected", Back: string(nav.Booking)}
	default:
		return Browsing{}
	}
}

func screenPath(name StepName) string {
	switch name {
	case StepProceed:
		return string(nav.Proceed)
	case StepPayment:
		return string(nav.Payment)
	case StepConfirmation:
		return string(nav.Confirmation)
	default:
		return string(nav.Booking)
	}
}

// Registry holds one flow per session.
type Registry struct {
	deps *Deps

	mu    sync.Mutex
	flows map[string]*Flow
}

func NewRegistry(deps *Deps) *Registry {
	return &Registry{deps: deps, flows: make(map[string]*Flow)}
}

// For returns the session's flow, creating it on first use.
func (r *Registry) For(s user.Session) *Flow {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flows[s.ID]
	if !ok {
		f = NewFlow(r.deps, &s)
		r.flows[s.ID] = f
	}
	return f
}

// Anonymous is a throwaway flow for a visitor without a session.
func (r *Registry) Anonymous() *Flow {
	return NewFlow(r.deps, nil)
}

// Drop forgets the session's flow, e.g. on logout.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	delete(r.flows, sessionID)
	r.mu.Unlock()
}

// Sweep drops the flows of sessions that expired before now and returns how
// many went.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, f := range r.flows {
		if f.session.Expired(now) {
			delete(r.flows, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}
