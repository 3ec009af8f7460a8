package booking

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/config"
	"github.com/akhilcoder7733/hotelgram/task"
)

type PaymentState string

const (
	Idle       PaymentState = "idle"
	Processing PaymentState = "processing"
	Success    PaymentState = "success"
	Failed     PaymentState = "error"
)

type Method string

const (
	Card Method = "card"
	UPI  Method = "upi"
)

type CardDetails struct {
	Number string `json:"cardNumber" validate:"required,numeric,min=16,max=19"`
	Holder string `json:"cardName" validate:"required"`
	Expiry string `json:"expiry" validate:"required,datetime=01/06"`
	CVV    string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

type UPIDetails struct {
	ID string `json:"upiId" validate:"required"`
}

// PaymentDetails is the payment form. Only the fields of the chosen method
// are checked.
type PaymentDetails struct {
	Method Method `json:"method"`
	CardDetails
	UPIDetails
}

func (p *PaymentDetails) normalize() {
	p.Method = Method(strings.ToLower(strings.TrimSpace(string(p.Method))))
	p.Number = strings.NewReplacer(" ", "", "-", "").Replace(p.Number)
	p.Holder = strings.TrimSpace(p.Holder)
	p.Expiry = strings.TrimSpace(p.Expiry)
	p.CVV = strings.TrimSpace(p.CVV)
	p.UPIDetails.ID = strings.TrimSpace(p.UPIDetails.ID)
}

// MarshalJSON leaves out the CVV and all but the last four card digits. The
// full details stay in memory for a retry.
func (p PaymentDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Method Method `json:"method"`
		Number string `json:"cardNumber,omitempty"`
		Holder string `json:"cardName,omitempty"`
		Expiry string `json:"expiry,omitempty"`
		UPI    string `json:"upiId,omitempty"`
	}{
		Method: p.Method,
		Number: maskCard(p.Number),
		Holder: p.Holder,
		Expiry: p.Expiry,
		UPI:    p.UPIDetails.ID,
	})
}

func maskCard(number string) string {
	if len(number) <= 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

func (p PaymentDetails) Validate() error {
	switch p.Method {
	case Card:
		return apperr.Validate(p.CardDetails)
	case UPI:
		return apperr.Validate(p.UPIDetails)
	case "":
		return apperr.Invalid("method", "required")
	default:
		return apperr.Invalid("method", "must be one of card upi")
	}
}

// Payment is the payment progress of a flow. Details survive a failure so a
// retry does not lose them.
type Payment struct {
	State   PaymentState   `json:"state"`
	Details PaymentDetails `json:"details"`
	Error   string         `json:"error,omitempty"`
}

// Gateway charges a booking.
type Gateway interface {
	Charge(ctx context.Context, amount float64, method Method) error
}

// SimulatedGateway approves charges after a fixed delay, declining a share of
// them. A breaker stops charging after repeated declines.
type SimulatedGateway struct {
	clock       task.Clock
	delay       time.Duration
	failureRate float64
	breaker     *gobreaker.CircuitBreaker

	mu   sync.Mutex
	roll func() float64
}

type GatewayOption func(*SimulatedGateway)

// WithRoll replaces the random source deciding declines. A charge is
// declined when roll() < failure rate.
func WithRoll(roll func() float64) GatewayOption {
	return func(g *SimulatedGateway) { g.roll = roll }
}

func NewSimulatedGateway(clock task.Clock, delay time.Duration, cfg config.PaymentConfig, logger *logrus.Logger, opts ...GatewayOption) *SimulatedGateway {
	g := &SimulatedGateway{
		clock:       clock,
		delay:       delay,
		failureRate: cfg.FailureRate,
		roll:        rand.New(rand.NewSource(time.Now().UnixNano())).Float64,
	}
	for _, opt := range opts {
		opt(g)
	}

	failures := cfg.BreakerFailures
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: cfg.BreakerHalfOpenN,
		Timeout:     cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return failures > 0 && counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"path": "booking/payment", "from": from.String(), "to": to.String()}).Warn("payment breaker changed state")
		},
	})
	return g
}

func (g *SimulatedGateway) Charge(ctx context.Context, amount float64, method Method) error {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		if err := g.clock.Wait(ctx, g.delay); err != nil {
			// the caller went away, the gateway did nothing wrong
			return err, nil
		}
		if g.decline() {
			return nil, &apperr.SimulatedFailure{Msg: "payment declined, please try again"}
		}
		return nil, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &apperr.SimulatedFailure{Msg: "payment gateway unavailable, please try again shortly"}
	}
	if err != nil {
		return err
	}
	if cancelled, ok := result.(error); ok {
		return cancelled
	}
	return nil
}

func (g *SimulatedGateway) decline() bool {
	if g.failureRate <= 0 {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.roll() < g.failureRate
}
